package models

import "time"

// DaysOfWeek lists timetable days in display order, Monday through Saturday.
var DaysOfWeek = []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// ValidDayOfWeek reports whether day is a supported timetable day.
func ValidDayOfWeek(day string) bool {
	for _, d := range DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// LessonStatus marks a history entry as attended or missed.
type LessonStatus string

const (
	LessonAttended LessonStatus = "attended"
	LessonMissed   LessonStatus = "missed"
)

// TimetableLesson is a weekly recurring slot on a class timetable. Times are
// "HH:MM" strings; the fixed width makes string comparison equivalent to
// time comparison. Attended is tri-state: nil means not yet marked.
type TimetableLesson struct {
	ID                      string     `db:"id" json:"id"`
	ClassID                 string     `db:"class_id" json:"class_id"`
	SubjectID               *string    `db:"subject_id" json:"subject_id,omitempty"`
	DayOfWeek               string     `db:"day_of_week" json:"day_of_week"`
	StartTime               string     `db:"start_time" json:"start_time"`
	EndTime                 string     `db:"end_time" json:"end_time"`
	Attended                *bool      `db:"attended" json:"attended,omitempty"`
	Reason                  *string    `db:"reason" json:"reason,omitempty"`
	Compensated             bool       `db:"compensated" json:"compensated"`
	CompensationNote        *string    `db:"compensation_note" json:"compensation_note,omitempty"`
	CompensationDate        *time.Time `db:"compensation_date" json:"compensation_date,omitempty"`
	CompensationForLessonID *string    `db:"compensation_for_lesson_id" json:"compensation_for_lesson_id,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// Overlaps applies the half-open interval test against another lesson on the
// same day. Touching boundaries do not overlap.
func (l TimetableLesson) Overlaps(other TimetableLesson) bool {
	if l.DayOfWeek != other.DayOfWeek {
		return false
	}
	return !(other.EndTime <= l.StartTime || other.StartTime >= l.EndTime)
}

// TimetableLessonWithSubject decorates a lesson with subject and class names.
type TimetableLessonWithSubject struct {
	TimetableLesson
	SubjectName *string `db:"subject_name" json:"subject_name,omitempty"`
	ClassName   string  `db:"class_name" json:"class_name"`
	ClassStream *string `db:"class_stream" json:"class_stream,omitempty"`
}

// TimetableHistoryEntry is an append-only snapshot written every time a
// lesson's attended status is set. Normal flows never mutate or delete rows.
type TimetableHistoryEntry struct {
	ID          string       `db:"id" json:"id"`
	LessonID    string       `db:"lesson_id" json:"lesson_id"`
	DayOfWeek   string       `db:"day_of_week" json:"day_of_week"`
	StartTime   string       `db:"start_time" json:"start_time"`
	EndTime     string       `db:"end_time" json:"end_time"`
	SubjectName *string      `db:"subject_name" json:"subject_name,omitempty"`
	Status      LessonStatus `db:"status" json:"status"`
	Reason      *string      `db:"reason" json:"reason,omitempty"`
	RecordedAt  time.Time    `db:"recorded_at" json:"recorded_at"`
}

// WeeklyLessonState reports a lesson's completion for one ISO week, derived
// from the latest history entry recorded inside that week.
type WeeklyLessonState struct {
	Lesson TimetableLessonWithSubject `json:"lesson"`
	Status *LessonStatus              `json:"status,omitempty"`
	Reason *string                    `json:"reason,omitempty"`
}

// LessonConflict names the colliding slot when scheduling is rejected.
type LessonConflict struct {
	LessonID  string  `json:"lesson_id"`
	ClassID   string  `json:"class_id"`
	ClassName string  `json:"class_name"`
	Subject   *string `json:"subject,omitempty"`
	DayOfWeek string  `json:"day_of_week"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
}

// LessonConflictError is returned when a lesson collides with an existing one
// anywhere on the owning teacher's schedule.
type LessonConflictError struct {
	Message  string         `json:"message"`
	Conflict LessonConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *LessonConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
