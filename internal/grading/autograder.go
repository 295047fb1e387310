package grading

import (
	"errors"
	"math"
	"strings"
)

// ErrEmptyRubric is returned when a rubric contains no usable terms. Grading
// against an empty rubric is a configuration error, not a zero score.
var ErrEmptyRubric = errors.New("rubric has no keywords")

// SplitRubric parses a comma-separated rubric into normalized terms.
// Terms are trimmed and lower-cased; blank entries are dropped.
func SplitRubric(rubric string) []string {
	parts := strings.Split(rubric, ",")
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		term := strings.ToLower(strings.TrimSpace(p))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// AutoGrade scores a free-text answer against rubric terms and returns a
// percentage in [0, 100]. A term hits when it occurs as a substring anywhere
// in the lower-cased answer; matching is not word-boundary aware.
func AutoGrade(answer string, terms []string) (int, error) {
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		term := strings.ToLower(strings.TrimSpace(t))
		if term != "" {
			normalized = append(normalized, term)
		}
	}
	if len(normalized) == 0 {
		return 0, ErrEmptyRubric
	}

	lowered := strings.ToLower(answer)
	hits := 0
	for _, term := range normalized {
		if strings.Contains(lowered, term) {
			hits++
		}
	}

	return int(math.Round(100 * float64(hits) / float64(len(normalized)))), nil
}

// AutoGradeRubric grades an answer against a raw comma-separated rubric string.
func AutoGradeRubric(answer, rubric string) (int, error) {
	return AutoGrade(answer, SplitRubric(rubric))
}
