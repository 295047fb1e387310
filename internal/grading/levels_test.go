package grading

import "testing"

func TestClassifyCBCLevel(t *testing.T) {
	tests := []struct {
		score float64
		want  CBCLevel
	}{
		{100, LevelExceeding},
		{80, LevelExceeding},
		{79, LevelMeeting},
		{50, LevelMeeting},
		{49, LevelBelow},
		{0, LevelBelow},
	}
	for _, tt := range tests {
		if got := ClassifyCBCLevel(tt.score); got != tt.want {
			t.Errorf("ClassifyCBCLevel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

// The classifier must be total and non-increasing band-wise as the score drops.
func TestClassifyCBCLevelTotality(t *testing.T) {
	rank := map[CBCLevel]int{LevelBelow: 0, LevelMeeting: 1, LevelExceeding: 2}
	prev := -1
	for s := 0; s <= 100; s++ {
		level := ClassifyCBCLevel(float64(s))
		r, ok := rank[level]
		if !ok {
			t.Fatalf("ClassifyCBCLevel(%d) returned unknown label %q", s, level)
		}
		if r < prev {
			t.Fatalf("ClassifyCBCLevel not monotonic at score %d", s)
		}
		prev = r
	}
}

func TestClassifyMasteryBand(t *testing.T) {
	tests := []struct {
		score float64
		want  MasteryBand
	}{
		{95, BandAdvanced},
		{90, BandAdvanced},
		{89, BandProficient},
		{75, BandProficient},
		{74, BandDeveloping},
		{60, BandDeveloping},
		{59, BandBeginning},
		{0, BandBeginning},
	}
	for _, tt := range tests {
		if got := ClassifyMasteryBand(tt.score); got != tt.want {
			t.Errorf("ClassifyMasteryBand(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

// The CBC labels and mastery bands are distinct vocabularies; a score must
// never map to the same label under both schemes.
func TestBandingSchemesAreDistinct(t *testing.T) {
	for s := 0; s <= 100; s += 5 {
		cbc := string(ClassifyCBCLevel(float64(s)))
		band := string(ClassifyMasteryBand(float64(s)))
		if cbc == band {
			t.Errorf("score %d maps to identical label %q in both schemes", s, cbc)
		}
	}
}
