package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/elimu-cbe/cbe-platform/internal/repositories"
)

// fakeAnalyticsRepo records the cutoff it was queried with and serves canned
// rollups
type fakeAnalyticsRepo struct {
	repositories.AnalyticsRepository
	lastSince time.Time
	ledger    repositories.LedgerStats
	atRisk    []repositories.AtRiskStudent
}

func (f *fakeAnalyticsRepo) LedgerStats(ctx context.Context, since time.Time) (*repositories.LedgerStats, error) {
	f.lastSince = since
	stats := f.ledger
	return &stats, nil
}

func (f *fakeAnalyticsRepo) ScoresBySubject(ctx context.Context, since time.Time) ([]repositories.SubjectStats, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) CBCLevelDistribution(ctx context.Context, since time.Time) ([]repositories.LevelCount, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) MasteryBandDistribution(ctx context.Context, since time.Time) ([]repositories.LevelCount, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) CompetencyStats(ctx context.Context, since time.Time, subject *string) ([]repositories.CompetencyStats, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) StudentCompetencyMastery(ctx context.Context, studentID string) ([]repositories.CompetencyMastery, error) {
	return nil, nil
}

func (f *fakeAnalyticsRepo) AtRiskStudents(ctx context.Context, since time.Time, threshold float64) ([]repositories.AtRiskStudent, error) {
	f.lastSince = since
	return f.atRisk, nil
}

func newAnalyticsHarness(analytics *fakeAnalyticsRepo) *analyticsService {
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &analyticsService{
		repo:   &fakeRepo{analytics: analytics},
		logger: testLogger(),
		now:    func() time.Time { return fixed },
	}
}

func TestAnalyticsService_WindowResolution(t *testing.T) {
	analytics := &fakeAnalyticsRepo{}
	service := newAnalyticsHarness(analytics)
	ctx := context.Background()

	cases := []struct {
		window string
		want   time.Time
	}{
		{"7d", time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)},
		{"30d", time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)},
		{"90d", time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC)},
		{"1y", time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.window, func(t *testing.T) {
			if _, err := service.Dashboard(ctx, tc.window); err != nil {
				t.Fatalf("Dashboard failed: %v", err)
			}
			if !analytics.lastSince.Equal(tc.want) {
				t.Errorf("window %s: expected cutoff %v, got %v", tc.window, tc.want, analytics.lastSince)
			}
		})
	}

	t.Run("empty window defaults to 30d", func(t *testing.T) {
		resp, err := service.Dashboard(ctx, "")
		if err != nil {
			t.Fatalf("Dashboard failed: %v", err)
		}
		if resp.Window != "30d" {
			t.Errorf("expected window 30d, got %s", resp.Window)
		}
	})

	t.Run("unknown window is rejected", func(t *testing.T) {
		_, err := service.Dashboard(ctx, "14d")
		if !errors.Is(err, ErrBadRequest) {
			t.Fatalf("expected ErrBadRequest, got %v", err)
		}
	})
}

func TestAnalyticsService_EmptyWindow(t *testing.T) {
	// An empty window reports zero counts and nil averages, never zero scores
	analytics := &fakeAnalyticsRepo{ledger: repositories.LedgerStats{}}
	service := newAnalyticsHarness(analytics)

	resp, err := service.Dashboard(context.Background(), "7d")
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if resp.Ledger.RecordCount != 0 {
		t.Errorf("expected 0 records, got %d", resp.Ledger.RecordCount)
	}
	if resp.Ledger.AverageScore != nil {
		t.Errorf("expected nil average for empty window, got %v", *resp.Ledger.AverageScore)
	}
	if resp.Ledger.StdDevScore != nil {
		t.Errorf("expected nil stddev for empty window, got %v", *resp.Ledger.StdDevScore)
	}
}

func TestAnalyticsService_AtRiskStudents(t *testing.T) {
	avg := 42.5
	analytics := &fakeAnalyticsRepo{atRisk: []repositories.AtRiskStudent{
		{StudentID: "student-1", RecordCount: 4, AverageScore: &avg},
	}}
	service := newAnalyticsHarness(analytics)

	resp, err := service.AtRiskStudents(context.Background(), "30d", 0)
	if err != nil {
		t.Fatalf("AtRiskStudents failed: %v", err)
	}
	if resp.Threshold != 50 {
		t.Errorf("expected default threshold 50, got %v", resp.Threshold)
	}
	if len(resp.Students) != 1 || resp.Students[0].StudentID != "student-1" {
		t.Errorf("unexpected at-risk list: %+v", resp.Students)
	}
}

func TestAnalyticsService_ExportDashboard(t *testing.T) {
	avg := 71.0
	analytics := &fakeAnalyticsRepo{ledger: repositories.LedgerStats{
		RecordCount:  10,
		StudentCount: 4,
		AverageScore: &avg,
	}}
	service := newAnalyticsHarness(analytics)

	data, err := service.ExportDashboard(context.Background(), "30d")
	if err != nil {
		t.Fatalf("ExportDashboard failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("export produced no bytes")
	}
	// xlsx files are zip archives
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("export is not a zip archive: % x", data[:4])
	}
}
