package models

import "time"

// MarkOutOf is the fixed maximum for stored scores.
const MarkOutOf = 100

// Terms are the three fixed academic periods per year.
var Terms = []int{1, 2, 3}

// ValidTerm reports whether term is one of the three academic periods.
func ValidTerm(term int) bool {
	return term >= 1 && term <= 3
}

// Mark stores one score per (student, subject, exam type, term); saves for
// the same tuple overwrite the previous score.
type Mark struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	SubjectID  string    `db:"subject_id" json:"subject_id"`
	ExamTypeID string    `db:"exam_type_id" json:"exam_type_id"`
	Term       int       `db:"term" json:"term"`
	Score      float64   `db:"score" json:"score"`
	OutOf      int       `db:"out_of" json:"out_of"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// MarkWithStudent decorates a mark with roster metadata for sheet views.
type MarkWithStudent struct {
	Mark
	AdmissionNumber string `db:"admission_number" json:"admission_number"`
	StudentName     string `db:"student_name" json:"student_name"`
}

// StudentMarkRow is a flat (student, score) pair used by the aggregator.
type StudentMarkRow struct {
	StudentID string  `db:"student_id"`
	Score     float64 `db:"score"`
}
