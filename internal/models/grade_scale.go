package models

import "time"

// GradeScale stores a teacher's minimum-score thresholds for the Kenyan
// twelve-grade scale. Eleven thresholds are stored; E has no threshold and
// is the floor grade for any average below MinDMinus.
type GradeScale struct {
	TeacherID         string    `db:"teacher_id" json:"-"`
	MinA              float64   `db:"min_a" json:"min_a"`
	MinAMinus         float64   `db:"min_a_minus" json:"min_a_minus"`
	MinBPlus          float64   `db:"min_b_plus" json:"min_b_plus"`
	MinB              float64   `db:"min_b" json:"min_b"`
	MinBMinus         float64   `db:"min_b_minus" json:"min_b_minus"`
	MinCPlus          float64   `db:"min_c_plus" json:"min_c_plus"`
	MinC              float64   `db:"min_c" json:"min_c"`
	MinCMinus         float64   `db:"min_c_minus" json:"min_c_minus"`
	MinDPlus          float64   `db:"min_d_plus" json:"min_d_plus"`
	MinD              float64   `db:"min_d" json:"min_d"`
	MinDMinus         float64   `db:"min_d_minus" json:"min_d_minus"`
	AverageMultiplier int       `db:"average_multiplier" json:"average_multiplier"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// GradeBand pairs a grade label with its minimum threshold.
type GradeBand struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
}

// GradeFloor is the label awarded below every stored threshold.
const GradeFloor = "E"

// GradeLabels lists every grade from best to worst, including the floor.
var GradeLabels = []string{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", GradeFloor}

// DefaultGradeScale returns the KCSE-style scale seeded for new teachers.
func DefaultGradeScale(teacherID string) *GradeScale {
	return &GradeScale{
		TeacherID:         teacherID,
		MinA:              80,
		MinAMinus:         75,
		MinBPlus:          70,
		MinB:              65,
		MinBMinus:         60,
		MinCPlus:          55,
		MinC:              50,
		MinCMinus:         45,
		MinDPlus:          40,
		MinD:              35,
		MinDMinus:         30,
		AverageMultiplier: 1,
	}
}

// Bands returns the stored thresholds ordered from best grade to worst.
func (s *GradeScale) Bands() []GradeBand {
	return []GradeBand{
		{Label: "A", Min: s.MinA},
		{Label: "A-", Min: s.MinAMinus},
		{Label: "B+", Min: s.MinBPlus},
		{Label: "B", Min: s.MinB},
		{Label: "B-", Min: s.MinBMinus},
		{Label: "C+", Min: s.MinCPlus},
		{Label: "C", Min: s.MinC},
		{Label: "C-", Min: s.MinCMinus},
		{Label: "D+", Min: s.MinDPlus},
		{Label: "D", Min: s.MinD},
		{Label: "D-", Min: s.MinDMinus},
	}
}

// GradeFor maps an adjusted average to the highest grade whose threshold it
// meets. Averages below every threshold, negatives included, earn the floor.
func (s *GradeScale) GradeFor(average float64) string {
	for _, band := range s.Bands() {
		if average >= band.Min {
			return band.Label
		}
	}
	return GradeFloor
}

// AdjustedAverage applies the multiplier and caps the result at 100.
func (s *GradeScale) AdjustedAverage(raw float64) float64 {
	adjusted := raw * float64(s.AverageMultiplier)
	if adjusted > 100 {
		return 100
	}
	return adjusted
}
