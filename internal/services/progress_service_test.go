package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/elimu-cbe/cbe-platform/internal/grading"
	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/repositories"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

func newProgressHarness(t *testing.T) (ProgressService, *fakeProgressRepo) {
	t.Helper()

	progress := newFakeProgressRepo()
	repo := &fakeRepo{
		assessment: &fakeAssessmentRepo{assessments: map[uint]*models.Assessment{
			1: {ID: 1, Title: "Fractions Quiz", Status: models.StatusPublished, CreatedBy: "teacher-1"},
		}},
		progress: progress,
		user:     testUsers(),
	}
	notification, _ := newTestNotification(t)

	return NewProgressService(repo, nil, testLogger(), validator.New(), notification), progress
}

func TestProgressService_UpsertScore(t *testing.T) {
	service, _ := newProgressHarness(t)
	ctx := context.Background()

	t.Run("level is recomputed from the score", func(t *testing.T) {
		record, err := service.UpsertScore(ctx, &UpsertScoreRequest{
			StudentID:    "student-1",
			AssessmentID: 1,
			Score:        85,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("UpsertScore failed: %v", err)
		}
		if record.CBCLevel != "Exceeding Expectations" {
			t.Errorf("expected Exceeding Expectations, got %s", record.CBCLevel)
		}
	})

	t.Run("second write keeps one row per pair", func(t *testing.T) {
		first, err := service.UpsertScore(ctx, &UpsertScoreRequest{
			StudentID:    "student-2",
			AssessmentID: 1,
			Score:        40,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("first upsert failed: %v", err)
		}
		if first.CBCLevel != "Below Expectations" {
			t.Errorf("expected Below Expectations, got %s", first.CBCLevel)
		}

		second, err := service.UpsertScore(ctx, &UpsertScoreRequest{
			StudentID:    "student-2",
			AssessmentID: 1,
			Score:        60,
		}, "teacher-1")
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("upsert created a new row: %d vs %d", second.ID, first.ID)
		}
		if second.CBCLevel != "Meeting Expectations" {
			t.Errorf("expected Meeting Expectations, got %s", second.CBCLevel)
		}
	})

	t.Run("students cannot write the ledger", func(t *testing.T) {
		_, err := service.UpsertScore(ctx, &UpsertScoreRequest{
			StudentID:    "student-1",
			AssessmentID: 1,
			Score:        100,
		}, "student-1")
		if err == nil {
			t.Fatal("expected permission error")
		}
		if !IsUnauthorized(err) {
			t.Errorf("expected permission error, got %v", err)
		}
	})

	t.Run("score outside the range is rejected", func(t *testing.T) {
		_, err := service.UpsertScore(ctx, &UpsertScoreRequest{
			StudentID:    "student-1",
			AssessmentID: 1,
			Score:        120,
		}, "teacher-1")
		if err == nil {
			t.Fatal("expected range error")
		}
	})

	t.Run("unknown assessment", func(t *testing.T) {
		_, err := service.UpsertScore(ctx, &UpsertScoreRequest{
			StudentID:    "student-1",
			AssessmentID: 99,
			Score:        50,
		}, "teacher-1")
		if !errors.Is(err, ErrAssessmentNotFound) {
			t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
		}
	})
}

func TestProgressService_Reads(t *testing.T) {
	service, progress := newProgressHarness(t)
	ctx := context.Background()

	seed := &models.Progress{StudentID: "student-1", AssessmentID: 1, Score: 70, CBCLevel: "Meeting Expectations"}
	if err := progress.Upsert(ctx, nil, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	t.Run("students read their own ledger", func(t *testing.T) {
		resp, err := service.GetStudentProgress(ctx, "student-1", repositories.ProgressFilters{Limit: 20}, "student-1")
		if err != nil {
			t.Fatalf("GetStudentProgress failed: %v", err)
		}
		if len(resp.Records) != 1 {
			t.Errorf("expected 1 record, got %d", len(resp.Records))
		}
	})

	t.Run("other students are denied", func(t *testing.T) {
		_, err := service.GetStudentProgress(ctx, "student-1", repositories.ProgressFilters{Limit: 20}, "student-2")
		if !IsUnauthorized(err) {
			t.Fatalf("expected permission error, got %v", err)
		}
	})

	t.Run("teachers read any student", func(t *testing.T) {
		if _, err := service.GetStudentProgress(ctx, "student-1", repositories.ProgressFilters{Limit: 20}, "teacher-1"); err != nil {
			t.Fatalf("teacher read failed: %v", err)
		}
	})

	t.Run("missing pair maps to not found", func(t *testing.T) {
		_, err := service.GetPair(ctx, "student-2", 1, "teacher-1")
		if !errors.Is(err, ErrProgressNotFound) {
			t.Fatalf("expected ErrProgressNotFound, got %v", err)
		}
	})
}

func TestProgressService_UpsertScore_KeepsStoredAnswer(t *testing.T) {
	progress := newFakeProgressRepo()
	repo := &fakeRepo{
		assessment: &fakeAssessmentRepo{assessments: map[uint]*models.Assessment{
			1: {
				ID:            1,
				Title:         "Fractions Quiz",
				Status:        models.StatusPublished,
				KeywordRubric: "numerator, denominator",
				CreatedBy:     "teacher-1",
			},
		}},
		progress: progress,
		user:     testUsers(),
	}
	notification, _ := newTestNotification(t)
	gradingService := NewGradingService(repo, nil, testLogger(), validator.New(), notification)
	service := NewProgressService(repo, nil, testLogger(), validator.New(), notification)
	ctx := context.Background()

	if _, err := gradingService.SubmitFreeText(ctx, 1, &FreeTextSubmissionRequest{
		Answer: "the numerator sits above the denominator",
	}, "student-1"); err != nil {
		t.Fatalf("SubmitFreeText failed: %v", err)
	}

	// A score override carries no answer text and must leave the stored one alone
	record, err := service.UpsertScore(ctx, &UpsertScoreRequest{
		StudentID:    "student-1",
		AssessmentID: 1,
		Score:        90,
	}, "teacher-1")
	if err != nil {
		t.Fatalf("UpsertScore failed: %v", err)
	}
	if record.Score != 90 {
		t.Errorf("expected score 90, got %v", record.Score)
	}

	stored, err := progress.GetByPair(ctx, nil, "student-1", 1)
	if err != nil {
		t.Fatalf("ledger row missing: %v", err)
	}
	if stored.SubmittedAnswer != "the numerator sits above the denominator" {
		t.Errorf("score override erased the stored answer: %q", stored.SubmittedAnswer)
	}
}

func TestProgressService_UpsertScore_ConcurrentWritersOneRow(t *testing.T) {
	progress := newFakeProgressRepo()
	repo := &fakeRepo{
		assessment: &fakeAssessmentRepo{assessments: map[uint]*models.Assessment{
			1: {ID: 1, Title: "Fractions Quiz", Status: models.StatusPublished, CreatedBy: "teacher-1"},
		}},
		progress: progress,
		user:     testUsers(),
	}
	service := NewProgressService(repo, nil, testLogger(), validator.New(), quietNotification{})
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(score float64) {
			defer wg.Done()
			_, err := service.UpsertScore(ctx, &UpsertScoreRequest{
				StudentID:    "student-1",
				AssessmentID: 1,
				Score:        score,
			}, "teacher-1")
			errs <- err
		}(float64(10 + i*5))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent upsert failed: %v", err)
		}
	}

	if got := progress.rowCount(); got != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", got)
	}

	// Whichever write won, the stored level matches the stored score
	stored, err := progress.GetByPair(ctx, nil, "student-1", 1)
	if err != nil {
		t.Fatalf("ledger row missing: %v", err)
	}
	if stored.CBCLevel != string(grading.ClassifyCBCLevel(stored.Score)) {
		t.Errorf("stored level %q does not match stored score %v", stored.CBCLevel, stored.Score)
	}
}
