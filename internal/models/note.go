package models

import "time"

// NoteStatus tracks whether a reminder is still open.
type NoteStatus string

const (
	NoteActive    NoteStatus = "active"
	NoteCompleted NoteStatus = "completed"
)

// TeacherNote is a freeform reminder scoped to a class.
type TeacherNote struct {
	ID          string     `db:"id" json:"id"`
	ClassID     string     `db:"class_id" json:"class_id"`
	Title       string     `db:"title" json:"title"`
	Content     string     `db:"content" json:"content"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	Status      NoteStatus `db:"status" json:"status"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
