package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/elimu-cbe/cbe-platform/internal/repositories"
)

// Symbolic analytics windows, resolved to cutoffs at call time
const (
	WindowWeek    = "7d"
	WindowMonth   = "30d"
	WindowQuarter = "90d"
	WindowYear    = "1y"
)

type analyticsService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger) AnalyticsService {
	return &analyticsService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// resolveWindow turns a symbolic window into an absolute cutoff. Windows are
// symbolic so cached dashboard keys stay stable across calls.
func (s *analyticsService) resolveWindow(window string) (time.Time, error) {
	now := s.now()
	switch window {
	case "", WindowMonth:
		return now.AddDate(0, 0, -30), nil
	case WindowWeek:
		return now.AddDate(0, 0, -7), nil
	case WindowQuarter:
		return now.AddDate(0, 0, -90), nil
	case WindowYear:
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown window %q", ErrBadRequest, window)
	}
}

func normalizeWindow(window string) string {
	if window == "" {
		return WindowMonth
	}
	return window
}

// Dashboard assembles every rollup for one window in a single response
func (s *analyticsService) Dashboard(ctx context.Context, window string) (*DashboardResponse, error) {
	since, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}

	ledger, err := s.repo.Analytics().LedgerStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ledger stats: %w", err)
	}

	bySubject, err := s.repo.Analytics().ScoresBySubject(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute subject stats: %w", err)
	}

	cbcLevels, err := s.repo.Analytics().CBCLevelDistribution(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cbc level distribution: %w", err)
	}

	masteryBands, err := s.repo.Analytics().MasteryBandDistribution(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute mastery band distribution: %w", err)
	}

	competencies, err := s.repo.Analytics().CompetencyStats(ctx, since, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to compute competency stats: %w", err)
	}

	return &DashboardResponse{
		Window:       normalizeWindow(window),
		Since:        since,
		Ledger:       ledger,
		BySubject:    bySubject,
		CBCLevels:    cbcLevels,
		MasteryBands: masteryBands,
		Competencies: competencies,
	}, nil
}

func (s *analyticsService) CompetencyStats(ctx context.Context, window string, subject *string) ([]repositories.CompetencyStats, error) {
	since, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}

	stats, err := s.repo.Analytics().CompetencyStats(ctx, since, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to compute competency stats: %w", err)
	}
	return stats, nil
}

func (s *analyticsService) StudentMastery(ctx context.Context, studentID string) (*StudentMasteryResponse, error) {
	mastery, err := s.repo.Analytics().StudentCompetencyMastery(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute student mastery: %w", err)
	}

	return &StudentMasteryResponse{
		StudentID:    studentID,
		Competencies: mastery,
	}, nil
}

func (s *analyticsService) AtRiskStudents(ctx context.Context, window string, threshold float64) (*AtRiskResponse, error) {
	if threshold <= 0 {
		threshold = 50
	}

	since, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Analytics().AtRiskStudents(ctx, since, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to compute at-risk students: %w", err)
	}

	return &AtRiskResponse{
		Window:    normalizeWindow(window),
		Threshold: threshold,
		Students:  students,
	}, nil
}

// ExportDashboard renders the dashboard rollups as an xlsx workbook with one
// sheet per rollup
func (s *analyticsService) ExportDashboard(ctx context.Context, window string) ([]byte, error) {
	dashboard, err := s.Dashboard(ctx, window)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const overviewSheet = "Overview"
	f.SetSheetName(f.GetSheetName(0), overviewSheet)

	f.SetCellValue(overviewSheet, "A1", "Window")
	f.SetCellValue(overviewSheet, "B1", dashboard.Window)
	f.SetCellValue(overviewSheet, "A2", "Since")
	f.SetCellValue(overviewSheet, "B2", dashboard.Since.Format(time.RFC3339))
	f.SetCellValue(overviewSheet, "A3", "Records")
	f.SetCellValue(overviewSheet, "B3", dashboard.Ledger.RecordCount)
	f.SetCellValue(overviewSheet, "A4", "Students")
	f.SetCellValue(overviewSheet, "B4", dashboard.Ledger.StudentCount)
	f.SetCellValue(overviewSheet, "A5", "Average score")
	setOptionalFloat(f, overviewSheet, "B5", dashboard.Ledger.AverageScore)
	f.SetCellValue(overviewSheet, "A6", "Std dev")
	setOptionalFloat(f, overviewSheet, "B6", dashboard.Ledger.StdDevScore)

	const subjectSheet = "By Subject"
	if _, err := f.NewSheet(subjectSheet); err != nil {
		return nil, fmt.Errorf("failed to build export: %w", err)
	}
	f.SetCellValue(subjectSheet, "A1", "Subject")
	f.SetCellValue(subjectSheet, "B1", "Records")
	f.SetCellValue(subjectSheet, "C1", "Average score")
	for i, row := range dashboard.BySubject {
		r := i + 2
		f.SetCellValue(subjectSheet, fmt.Sprintf("A%d", r), row.Subject)
		f.SetCellValue(subjectSheet, fmt.Sprintf("B%d", r), row.RecordCount)
		setOptionalFloat(f, subjectSheet, fmt.Sprintf("C%d", r), row.AverageScore)
	}

	const levelSheet = "Levels"
	if _, err := f.NewSheet(levelSheet); err != nil {
		return nil, fmt.Errorf("failed to build export: %w", err)
	}
	f.SetCellValue(levelSheet, "A1", "CBC Level")
	f.SetCellValue(levelSheet, "B1", "Count")
	row := 2
	for _, lc := range dashboard.CBCLevels {
		f.SetCellValue(levelSheet, fmt.Sprintf("A%d", row), lc.Level)
		f.SetCellValue(levelSheet, fmt.Sprintf("B%d", row), lc.Count)
		row++
	}
	row += 1
	f.SetCellValue(levelSheet, fmt.Sprintf("A%d", row), "Mastery Band")
	f.SetCellValue(levelSheet, fmt.Sprintf("B%d", row), "Count")
	row++
	for _, lc := range dashboard.MasteryBands {
		f.SetCellValue(levelSheet, fmt.Sprintf("A%d", row), lc.Level)
		f.SetCellValue(levelSheet, fmt.Sprintf("B%d", row), lc.Count)
		row++
	}

	const competencySheet = "Competencies"
	if _, err := f.NewSheet(competencySheet); err != nil {
		return nil, fmt.Errorf("failed to build export: %w", err)
	}
	f.SetCellValue(competencySheet, "A1", "Competency")
	f.SetCellValue(competencySheet, "B1", "Samples")
	f.SetCellValue(competencySheet, "C1", "Students")
	f.SetCellValue(competencySheet, "D1", "Average score")
	f.SetCellValue(competencySheet, "E1", "Std dev")
	for i, c := range dashboard.Competencies {
		r := i + 2
		f.SetCellValue(competencySheet, fmt.Sprintf("A%d", r), c.Competency)
		f.SetCellValue(competencySheet, fmt.Sprintf("B%d", r), c.SampleCount)
		f.SetCellValue(competencySheet, fmt.Sprintf("C%d", r), c.StudentCount)
		setOptionalFloat(f, competencySheet, fmt.Sprintf("D%d", r), c.AverageScore)
		setOptionalFloat(f, competencySheet, fmt.Sprintf("E%d", r), c.StdDevScore)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize export: %w", err)
	}

	return buf.Bytes(), nil
}

// setOptionalFloat writes a nullable average; empty windows render as "n/a"
func setOptionalFloat(f *excelize.File, sheet, cell string, value *float64) {
	if value == nil {
		f.SetCellValue(sheet, cell, "n/a")
		return
	}
	f.SetCellValue(sheet, cell, *value)
}
