package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// AttendanceRecord is one student's status on one date. Exactly one record
// exists per (student, date); saves overwrite rather than duplicate. Reason
// is only meaningful when the status is absent.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Reason    *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecordWithStudent decorates a record with roster metadata.
type AttendanceRecordWithStudent struct {
	AttendanceRecord
	AdmissionNumber string `db:"admission_number" json:"admission_number"`
	StudentName     string `db:"student_name" json:"student_name"`
}

// AttendanceHistoryFilter scopes history listings.
type AttendanceHistoryFilter struct {
	ClassID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}

// AttendanceDaySummary aggregates one class day for the history view.
type AttendanceDaySummary struct {
	Date    time.Time `db:"date" json:"date"`
	Present int       `db:"present" json:"present"`
	Absent  int       `db:"absent" json:"absent"`
}
