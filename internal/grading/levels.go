package grading

// CBCLevel is the three-band competency-based-curriculum label persisted on
// every progress record.
type CBCLevel string

const (
	LevelExceeding CBCLevel = "Exceeding Expectations"
	LevelMeeting   CBCLevel = "Meeting Expectations"
	LevelBelow     CBCLevel = "Below Expectations"
)

// ClassifyCBCLevel maps a percentage score to its CBC level. Band boundaries
// are inclusive at the lower end: exactly 80 is Exceeding, exactly 50 is
// Meeting.
func ClassifyCBCLevel(score float64) CBCLevel {
	switch {
	case score >= 80:
		return LevelExceeding
	case score >= 50:
		return LevelMeeting
	default:
		return LevelBelow
	}
}

// MasteryBand is the four-band scheme used only by analytics rollups. It is
// a separate classification from CBCLevel and the two are never merged.
type MasteryBand string

const (
	BandAdvanced   MasteryBand = "Advanced"
	BandProficient MasteryBand = "Proficient"
	BandDeveloping MasteryBand = "Developing"
	BandBeginning  MasteryBand = "Beginning"
)

// ClassifyMasteryBand maps a percentage score to its analytics mastery band.
func ClassifyMasteryBand(score float64) MasteryBand {
	switch {
	case score >= 90:
		return BandAdvanced
	case score >= 75:
		return BandProficient
	case score >= 60:
		return BandDeveloping
	default:
		return BandBeginning
	}
}
