package models

import "time"

// DefaultExamTypeNames are seeded for a teacher on first access.
var DefaultExamTypeNames = []string{"CAT 1", "CAT 2", "Mid-Term", "End-Term"}

// ExamType is a named assessment category scoped per teacher. An exam type
// referenced by stored marks cannot be deleted.
type ExamType struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
