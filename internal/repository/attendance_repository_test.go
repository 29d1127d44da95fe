package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryListByClassAndDate(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "reason", "created_at", "updated_at", "admission_number", "student_name"}).
		AddRow("att-1", "student-1", date, "present", nil, time.Now(), time.Now(), "1001", "Achieng Odhiambo").
		AddRow("att-2", "student-2", date, "absent", "sick", time.Now(), time.Now(), "1002", "Baraka Mwangi")
	mock.ExpectQuery("SELECT a.id, a.student_id, a.date, a.status, a.reason").
		WithArgs("class-1", date).
		WillReturnRows(rows)

	records, err := repo.ListByClassAndDate(context.Background(), "class-1", date)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.AttendanceAbsent, records[1].Status)
	assert.Equal(t, "1001", records[0].AdmissionNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	reason := "sick"
	records := []models.AttendanceRecord{
		{StudentID: "student-1", Date: date, Status: models.AttendancePresent},
		{StudentID: "student-2", Date: date, Status: models.AttendanceAbsent, Reason: &reason},
	}

	mock.ExpectBegin()
	for range records {
		mock.ExpectExec("INSERT INTO attendance_records").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.BulkUpsert(context.Background(), records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{
		{StudentID: "student-1", Date: date, Status: models.AttendancePresent},
		{StudentID: "student-2", Date: date, Status: models.AttendancePresent},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), records)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDaySummaries(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"date", "present", "absent"}).
		AddRow(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), 28, 2).
		AddRow(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 27, 3)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE a.status = 'present')")).
		WithArgs("class-1", from).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT a.date)")).
		WithArgs("class-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	summaries, total, err := repo.DaySummaries(context.Background(), models.AttendanceHistoryFilter{
		ClassID:  "class-1",
		DateFrom: &from,
	})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, 28, summaries[0].Present)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatusRows(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"date", "status"}).
		AddRow(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "present").
		AddRow(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "absent")
	mock.ExpectQuery("SELECT a.date, a.status").
		WithArgs("class-1").
		WillReturnRows(rows)

	statusRows, err := repo.StatusRows(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, statusRows, 2)
	assert.Equal(t, models.AttendancePresent, statusRows[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
