package models

import "time"

// ClassLevels are the four fixed grade levels a class may use as its name.
var ClassLevels = []string{"Form 1", "Form 2", "Form 3", "Form 4"}

// ValidClassLevel reports whether the name is one of the fixed grade levels.
func ValidClassLevel(name string) bool {
	for _, level := range ClassLevels {
		if level == name {
			return true
		}
	}
	return false
}

// Class is a grade-level group of students owned by one teacher. A teacher
// may run several classes at the same level distinguished by stream.
type Class struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Name      string    `db:"name" json:"name"`
	Stream    *string   `db:"stream" json:"stream,omitempty"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassWithCounts decorates a class with roster sizes for listings.
type ClassWithCounts struct {
	Class
	StudentCount int `db:"student_count" json:"student_count"`
	SubjectCount int `db:"subject_count" json:"subject_count"`
}

// DisplayName renders "Form 2 East" style labels for conflict messages.
func (c Class) DisplayName() string {
	if c.Stream != nil && *c.Stream != "" {
		return c.Name + " " + *c.Stream
	}
	return c.Name
}
