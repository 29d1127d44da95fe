package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

func newTimetableMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestTimetableRepositoryFindOwned(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_id", "subject_id", "day_of_week", "start_time", "end_time",
		"attended", "reason", "compensated", "compensation_note", "compensation_date", "compensation_for_lesson_id",
		"created_at", "updated_at"}).
		AddRow("lesson-1", "class-1", nil, "MONDAY", "08:00", "09:00", nil, nil, false, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("FROM timetable_lessons l").
		WithArgs("lesson-1", "teacher-1").
		WillReturnRows(rows)

	lesson, err := repo.FindOwned(context.Background(), "lesson-1", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, "MONDAY", lesson.DayOfWeek)
	assert.Equal(t, "08:00", lesson.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySetAttendanceWritesHistory(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	attended := false
	reason := "school event"
	lesson := &models.TimetableLesson{ID: "lesson-1", Attended: &attended, Reason: &reason}
	entry := &models.TimetableHistoryEntry{
		LessonID:  "lesson-1",
		DayOfWeek: "MONDAY",
		StartTime: "08:00",
		EndTime:   "09:00",
		Status:    models.LessonMissed,
		Reason:    &reason,
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE timetable_lessons SET attended").
		WithArgs(anyArgs(4)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timetable_history").
		WithArgs(anyArgs(9)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetAttendance(context.Background(), lesson, entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.RecordedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySetAttendanceWithoutHistory(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	lesson := &models.TimetableLesson{ID: "lesson-1"}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE timetable_lessons SET attended").
		WithArgs(anyArgs(4)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetAttendance(context.Background(), lesson, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryCreateCompensation(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	attended := false
	originalID := "lesson-1"
	original := &models.TimetableLesson{ID: originalID, ClassID: "class-1", DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:00", Attended: &attended}
	compensation := &models.TimetableLesson{
		ClassID:                 "class-1",
		DayOfWeek:               "SATURDAY",
		StartTime:               "10:00",
		EndTime:                 "11:00",
		CompensationForLessonID: &originalID,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO timetable_lessons").
		WithArgs(anyArgs(14)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE timetable_lessons SET compensated").
		WithArgs(anyArgs(4)...).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateCompensation(context.Background(), original, compensation))
	assert.NotEmpty(t, compensation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryLatestHistoryInRange(t *testing.T) {
	db, mock, cleanup := newTimetableMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	rows := sqlmock.NewRows([]string{"id", "lesson_id", "day_of_week", "start_time", "end_time", "subject_name", "status", "reason", "recorded_at"}).
		AddRow("hist-1", "lesson-1", "MONDAY", "08:00", "09:00", "Mathematics", "attended", nil, from.Add(9*time.Hour)).
		AddRow("hist-2", "lesson-2", "TUESDAY", "10:00", "11:00", nil, "missed", "school event", from.Add(34*time.Hour))
	mock.ExpectQuery("SELECT DISTINCT ON").
		WithArgs("class-1", from, to).
		WillReturnRows(rows)

	latest, err := repo.LatestHistoryInRange(context.Background(), "class-1", from, to)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, models.LessonAttended, latest["lesson-1"].Status)
	assert.Equal(t, models.LessonMissed, latest["lesson-2"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
