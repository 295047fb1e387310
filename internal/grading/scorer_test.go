package grading

import (
	"testing"

	"github.com/elimu-cbe/cbe-platform/internal/models"
)

func strPtr(s string) *string { return &s }

func TestDefaultScorerMultipleChoice(t *testing.T) {
	q := &models.Question{
		Type:          models.MultipleChoice,
		CorrectAnswer: strPtr("B"),
		Points:        10,
	}
	scorer := NewDefaultScorer()

	if got := scorer.Score(q, "B"); got != 10 {
		t.Errorf("exact match = %v, want 10", got)
	}
	if got := scorer.Score(q, " B "); got != 10 {
		t.Errorf("match with surrounding whitespace = %v, want 10", got)
	}
	if got := scorer.Score(q, "A"); got != 0 {
		t.Errorf("wrong answer = %v, want 0", got)
	}
	if got := scorer.Score(&models.Question{Type: models.MultipleChoice, Points: 10}, "A"); got != 0 {
		t.Errorf("missing correct answer = %v, want 0", got)
	}
}

func TestDefaultScorerPartialCredit(t *testing.T) {
	for _, qt := range []models.QuestionType{models.ShortAnswer, models.Essay, models.PerformanceTask} {
		q := &models.Question{Type: qt, Points: 10}
		if got := NewDefaultScorer().Score(q, "anything"); got != 8 {
			t.Errorf("Score(%s) = %v, want 8 (placeholder 80%% of points)", qt, got)
		}
	}
}

func TestScorerOverride(t *testing.T) {
	scorer := NewDefaultScorer()
	scorer.Register(models.Essay, func(q *models.Question, answer string) float64 {
		if len(answer) > 10 {
			return float64(q.Points)
		}
		return 0
	})

	q := &models.Question{Type: models.Essay, Points: 5}
	if got := scorer.Score(q, "a long enough essay answer"); got != 5 {
		t.Errorf("overridden strategy = %v, want 5", got)
	}
	// Other types keep the fallback
	if got := scorer.Score(&models.Question{Type: models.ShortAnswer, Points: 10}, "x"); got != 8 {
		t.Errorf("fallback after override = %v, want 8", got)
	}
}

func TestRollupCompetencies(t *testing.T) {
	critical := strPtr("Critical Thinking")
	numeracy := strPtr("Numeracy")

	results := []QuestionResult{
		{Question: &models.Question{CompetencyMapping: critical}, Score: 90},
		{Question: &models.Question{CompetencyMapping: critical}, Score: 70},
		{Question: &models.Question{CompetencyMapping: numeracy}, Score: 40},
		{Question: &models.Question{CompetencyMapping: nil}, Score: 100}, // unlabeled, excluded
	}

	rollup := RollupCompetencies(results)
	if len(rollup) != 2 {
		t.Fatalf("RollupCompetencies() returned %d entries, want 2", len(rollup))
	}

	// Sorted by competency name
	if rollup[0].Competency != "Critical Thinking" || rollup[0].Score != 80 || rollup[0].Level != 4 {
		t.Errorf("Critical Thinking rollup = %+v, want score 80 level 4", rollup[0])
	}
	if rollup[1].Competency != "Numeracy" || rollup[1].Score != 40 || rollup[1].Level != 2 {
		t.Errorf("Numeracy rollup = %+v, want score 40 level 2", rollup[1])
	}
}

func TestCompetencyLevel(t *testing.T) {
	tests := []struct {
		avg  float64
		want int
	}{
		{0, 1},   // clamped to the floor
		{1, 1},
		{25, 1},
		{26, 2},
		{50, 2},
		{75, 3},
		{76, 4},
		{100, 4},
		{120, 4}, // clamped to the ceiling
	}
	for _, tt := range tests {
		if got := CompetencyLevel(tt.avg); got != tt.want {
			t.Errorf("CompetencyLevel(%v) = %d, want %d", tt.avg, got, tt.want)
		}
	}
}
