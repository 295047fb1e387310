package grading

import (
	"math"
	"sort"
	"strings"

	"github.com/elimu-cbe/cbe-platform/internal/models"
)

// PartialCreditRate is the placeholder fraction of points awarded to answers
// on question types without a real grading strategy yet. Override per type by
// registering a ScoreFunc on the scorer.
const PartialCreditRate = 0.8

// ScoreFunc grades one answer against one question and returns awarded points.
type ScoreFunc func(q *models.Question, answer string) float64

// QuestionScorer grades a single answer for a question.
type QuestionScorer interface {
	Score(q *models.Question, answer string) float64
}

// StrategyScorer dispatches on question type, falling back to the partial
// credit placeholder for types with no registered strategy.
type StrategyScorer struct {
	strategies map[models.QuestionType]ScoreFunc
	fallback   ScoreFunc
}

// NewDefaultScorer builds a scorer with exact-match grading for multiple
// choice and the partial credit placeholder for everything else.
func NewDefaultScorer() *StrategyScorer {
	s := &StrategyScorer{
		strategies: make(map[models.QuestionType]ScoreFunc),
		fallback:   partialCreditScore,
	}
	s.Register(models.MultipleChoice, exactMatchScore)
	return s
}

// Register sets the scoring strategy for a question type, replacing any
// previous one.
func (s *StrategyScorer) Register(qt models.QuestionType, fn ScoreFunc) {
	s.strategies[qt] = fn
}

func (s *StrategyScorer) Score(q *models.Question, answer string) float64 {
	if fn, ok := s.strategies[q.Type]; ok {
		return fn(q, answer)
	}
	return s.fallback(q, answer)
}

func exactMatchScore(q *models.Question, answer string) float64 {
	if q.CorrectAnswer != nil && strings.TrimSpace(answer) == strings.TrimSpace(*q.CorrectAnswer) {
		return float64(q.Points)
	}
	return 0
}

func partialCreditScore(q *models.Question, _ string) float64 {
	return PartialCreditRate * float64(q.Points)
}

// QuestionResult pairs a graded question with the points it earned.
type QuestionResult struct {
	Question *models.Question
	Score    float64
}

// CompetencyResult is the rollup of question scores sharing one
// competency-mapping label.
type CompetencyResult struct {
	Competency string  `json:"competency"`
	Score      float64 `json:"score"`
	Level      int     `json:"level"`
}

// RollupCompetencies averages question scores per competency label and maps
// each average to an integer level, ceil(avg/25) clamped to [1, 4].
// Questions without a label are excluded. Output order is deterministic
// (sorted by competency name).
func RollupCompetencies(results []QuestionResult) []CompetencyResult {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range results {
		if r.Question.CompetencyMapping == nil {
			continue
		}
		label := strings.TrimSpace(*r.Question.CompetencyMapping)
		if label == "" {
			continue
		}
		sums[label] += r.Score
		counts[label]++
	}

	labels := make([]string, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	out := make([]CompetencyResult, 0, len(labels))
	for _, label := range labels {
		avg := sums[label] / float64(counts[label])
		out = append(out, CompetencyResult{
			Competency: label,
			Score:      avg,
			Level:      CompetencyLevel(avg),
		})
	}
	return out
}

// CompetencyLevel converts an average question score to the 1-4 integer level.
func CompetencyLevel(avg float64) int {
	level := int(math.Ceil(avg / 25))
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	return level
}
