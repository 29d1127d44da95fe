package models

import "time"

// Gender enumerates supported student gender values.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid returns true when the gender is a supported value.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Student belongs to a class; admission numbers are unique within the class.
// Deleting a student cascades to their attendance and marks.
type Student struct {
	ID              string    `db:"id" json:"id"`
	ClassID         string    `db:"class_id" json:"class_id"`
	AdmissionNumber string    `db:"admission_number" json:"admission_number"`
	FullName        string    `db:"full_name" json:"full_name"`
	Gender          Gender    `db:"gender" json:"gender"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
