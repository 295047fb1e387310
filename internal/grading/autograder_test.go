package grading

import (
	"errors"
	"testing"
)

func TestAutoGradeRubric(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		rubric string
		want   int
	}{
		{name: "one of two terms", answer: "the cat sat", rubric: "cat,dog", want: 50},
		{name: "case and whitespace insensitive", answer: "CAT", rubric: " Cat , dog ", want: 50},
		{name: "two of three terms", answer: "explain how plants grow using sunlight", rubric: "sunlight,grow,water", want: 67},
		{name: "all terms present", answer: "photosynthesis uses sunlight water and air to grow", rubric: "sunlight,grow,water", want: 100},
		{name: "no terms present", answer: "unrelated text", rubric: "sunlight,grow", want: 0},
		{name: "substring match inside longer word", answer: "concatenate", rubric: "cat", want: 100},
		{name: "blank entries in rubric ignored", answer: "the cat sat", rubric: "cat,, ,dog", want: 50},
		{name: "empty answer", answer: "", rubric: "cat,dog", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AutoGradeRubric(tt.answer, tt.rubric)
			if err != nil {
				t.Fatalf("AutoGradeRubric() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AutoGradeRubric() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAutoGradeEmptyRubric(t *testing.T) {
	tests := []struct {
		name   string
		rubric string
	}{
		{name: "empty string", rubric: ""},
		{name: "only commas", rubric: ",,,"},
		{name: "only whitespace", rubric: "  ,  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AutoGradeRubric("any answer", tt.rubric)
			if !errors.Is(err, ErrEmptyRubric) {
				t.Errorf("AutoGradeRubric() error = %v, want ErrEmptyRubric", err)
			}
		})
	}
}

func TestSplitRubric(t *testing.T) {
	got := SplitRubric(" Sunlight , grow ,, WATER ")
	want := []string{"sunlight", "grow", "water"}
	if len(got) != len(want) {
		t.Fatalf("SplitRubric() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SplitRubric()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
