package services

import (
	"context"
	"errors"
	"testing"

	"github.com/elimu-cbe/cbe-platform/internal/models"
	"github.com/elimu-cbe/cbe-platform/internal/validator"
)

func newGradingHarness(t *testing.T, assessments map[uint]*models.Assessment) (GradingService, *fakeProgressRepo) {
	t.Helper()

	progress := newFakeProgressRepo()
	repo := &fakeRepo{
		assessment: &fakeAssessmentRepo{assessments: assessments},
		progress:   progress,
		user:       testUsers(),
	}
	notification, _ := newTestNotification(t)

	return NewGradingService(repo, nil, testLogger(), validator.New(), notification), progress
}

func TestGradingService_SubmitFreeText(t *testing.T) {
	assessments := map[uint]*models.Assessment{
		1: {
			ID:            1,
			Title:         "Photosynthesis Basics",
			Subject:       "Science",
			Status:        models.StatusPublished,
			KeywordRubric: "photosynthesis, chlorophyll, sunlight",
		},
	}
	service, progress := newGradingHarness(t, assessments)
	ctx := context.Background()

	t.Run("partial rubric match", func(t *testing.T) {
		resp, err := service.SubmitFreeText(ctx, 1, &FreeTextSubmissionRequest{
			Answer: "Plants use sunlight for photosynthesis.",
		}, "student-1")
		if err != nil {
			t.Fatalf("SubmitFreeText failed: %v", err)
		}

		// 2 of 3 terms hit: round(200/3) = 67
		if resp.Score != 67 {
			t.Errorf("expected score 67, got %d", resp.Score)
		}
		if resp.CBCLevel != "Meeting Expectations" {
			t.Errorf("expected Meeting Expectations, got %s", resp.CBCLevel)
		}
		if resp.MasteryBand != "Developing" {
			t.Errorf("expected Developing, got %s", resp.MasteryBand)
		}
	})

	t.Run("matching is case-insensitive substring", func(t *testing.T) {
		resp, err := service.SubmitFreeText(ctx, 1, &FreeTextSubmissionRequest{
			Answer: "CHLOROPHYLL absorbs SunLight during photosynthesis",
		}, "student-2")
		if err != nil {
			t.Fatalf("SubmitFreeText failed: %v", err)
		}
		if resp.Score != 100 {
			t.Errorf("expected score 100, got %d", resp.Score)
		}
		if resp.CBCLevel != "Exceeding Expectations" {
			t.Errorf("expected Exceeding Expectations, got %s", resp.CBCLevel)
		}
	})

	t.Run("resubmission overwrites the ledger row", func(t *testing.T) {
		first, err := service.SubmitFreeText(ctx, 1, &FreeTextSubmissionRequest{
			Answer: "sunlight",
		}, "student-1")
		if err != nil {
			t.Fatalf("first submission failed: %v", err)
		}

		second, err := service.SubmitFreeText(ctx, 1, &FreeTextSubmissionRequest{
			Answer: "photosynthesis needs chlorophyll and sunlight",
		}, "student-1")
		if err != nil {
			t.Fatalf("second submission failed: %v", err)
		}

		if second.Progress.ID != first.Progress.ID {
			t.Errorf("resubmission created a new row: %d vs %d", second.Progress.ID, first.Progress.ID)
		}

		stored, err := progress.GetByPair(ctx, nil, "student-1", 1)
		if err != nil {
			t.Fatalf("ledger row missing: %v", err)
		}
		if stored.Score != 100 {
			t.Errorf("expected stored score 100, got %v", stored.Score)
		}
		if stored.CBCLevel != "Exceeding Expectations" {
			t.Errorf("expected stored level Exceeding Expectations, got %s", stored.CBCLevel)
		}
	})
}

func TestGradingService_SubmitFreeText_Errors(t *testing.T) {
	assessments := map[uint]*models.Assessment{
		1: {ID: 1, Title: "No Rubric", Status: models.StatusPublished, KeywordRubric: " , , "},
		2: {ID: 2, Title: "Draft", Status: models.StatusDraft, KeywordRubric: "term"},
		3: {ID: 3, Title: "Term Check", Status: models.StatusPublished, KeywordRubric: "term"},
	}
	service, progress := newGradingHarness(t, assessments)
	ctx := context.Background()

	t.Run("empty rubric is a configuration error", func(t *testing.T) {
		_, err := service.SubmitFreeText(ctx, 1, &FreeTextSubmissionRequest{Answer: "anything"}, "student-1")
		if !errors.Is(err, ErrEmptyRubric) {
			t.Fatalf("expected ErrEmptyRubric, got %v", err)
		}
		if _, err := progress.GetByPair(ctx, nil, "student-1", 1); err == nil {
			t.Error("empty-rubric grading must not write the ledger")
		}
	})

	t.Run("draft assessment rejects submissions", func(t *testing.T) {
		_, err := service.SubmitFreeText(ctx, 2, &FreeTextSubmissionRequest{Answer: "term"}, "student-1")
		if !errors.Is(err, ErrAssessmentNotPublished) {
			t.Fatalf("expected ErrAssessmentNotPublished, got %v", err)
		}
	})

	t.Run("missing assessment", func(t *testing.T) {
		_, err := service.SubmitFreeText(ctx, 99, &FreeTextSubmissionRequest{Answer: "term"}, "student-1")
		if !errors.Is(err, ErrAssessmentNotFound) {
			t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
		}
	})

	t.Run("blank answer scores zero", func(t *testing.T) {
		resp, err := service.SubmitFreeText(ctx, 3, &FreeTextSubmissionRequest{Answer: ""}, "student-1")
		if err != nil {
			t.Fatalf("SubmitFreeText failed: %v", err)
		}
		if resp.Score != 0 {
			t.Errorf("expected score 0, got %d", resp.Score)
		}
		if resp.CBCLevel != "Below Expectations" {
			t.Errorf("expected Below Expectations, got %s", resp.CBCLevel)
		}
	})
}

func TestGradingService_GradeFreeText_Preview(t *testing.T) {
	assessments := map[uint]*models.Assessment{
		1: {ID: 1, Title: "Water Cycle", Status: models.StatusPublished, KeywordRubric: "evaporation, condensation"},
	}
	service, progress := newGradingHarness(t, assessments)
	ctx := context.Background()

	score, level, err := service.GradeFreeText(ctx, 1, "evaporation turns water into vapor")
	if err != nil {
		t.Fatalf("GradeFreeText failed: %v", err)
	}
	if score != 50 {
		t.Errorf("expected score 50, got %d", score)
	}
	if level != "Meeting Expectations" {
		t.Errorf("expected Meeting Expectations, got %s", level)
	}

	// Preview must not touch the ledger
	if len(progress.records) != 0 {
		t.Errorf("preview grading wrote %d ledger rows", len(progress.records))
	}
}
