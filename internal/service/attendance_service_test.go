package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records   []models.AttendanceRecordWithStudent
	summaries []models.AttendanceDaySummary
	upserted  []models.AttendanceRecord
}

func (m *mockAttendanceRepo) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecordWithStudent, error) {
	return m.records, nil
}

func (m *mockAttendanceRepo) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	m.upserted = records
	return nil
}

func (m *mockAttendanceRepo) DaySummaries(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceDaySummary, int, error) {
	return m.summaries, len(m.summaries), nil
}

type mockRosterClassRepo struct{}

func (m *mockRosterClassRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error) {
	if teacherID != "teacher-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Class{ID: id, TeacherID: teacherID}, nil
}

type mockRosterStudentRepo struct {
	students []models.Student
}

func (m *mockRosterStudentRepo) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	return m.students, nil
}

type mockInvalidator struct {
	invalidated []string
}

func (m *mockInvalidator) Invalidate(ctx context.Context, teacherID, classID string) {
	m.invalidated = append(m.invalidated, teacherID+"/"+classID)
}

func attendanceFixture() (*AttendanceService, *mockAttendanceRepo, *mockInvalidator) {
	repo := &mockAttendanceRepo{}
	invalidator := &mockInvalidator{}
	students := []models.Student{
		{ID: "s1", ClassID: "class-1", AdmissionNumber: "001"},
		{ID: "s2", ClassID: "class-1", AdmissionNumber: "002"},
	}
	svc := NewAttendanceService(repo, &mockRosterClassRepo{}, &mockRosterStudentRepo{students: students}, invalidator, nil, nil)
	return svc, repo, invalidator
}

func TestAttendanceSaveRequiresReasonForAbsent(t *testing.T) {
	svc, repo, _ := attendanceFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveAttendanceRequest{
		Date: day("2026-02-02"),
		Entries: []AttendanceEntry{
			{StudentID: "s1", Status: "absent"},
		},
	})
	require.Error(t, err)
	assert.Empty(t, repo.upserted)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAttendanceSaveDiscardsPresentReason(t *testing.T) {
	svc, repo, invalidator := attendanceFixture()

	stale := "was sick last week"
	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveAttendanceRequest{
		Date: day("2026-02-02"),
		Entries: []AttendanceEntry{
			{StudentID: "s1", Status: "present", Reason: &stale},
			{StudentID: "s2", Status: "absent", Reason: strPtr("clinic visit")},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 2)

	assert.Nil(t, repo.upserted[0].Reason)
	require.NotNil(t, repo.upserted[1].Reason)
	assert.Equal(t, "clinic visit", *repo.upserted[1].Reason)
	assert.Equal(t, []string{"teacher-1/class-1"}, invalidator.invalidated)
}

func TestAttendanceSaveRejectsForeignStudent(t *testing.T) {
	svc, repo, _ := attendanceFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveAttendanceRequest{
		Date: day("2026-02-02"),
		Entries: []AttendanceEntry{
			{StudentID: "intruder", Status: "present"},
		},
	})
	require.Error(t, err)
	assert.Empty(t, repo.upserted)
}

func TestAttendanceSaveRejectsDuplicateEntries(t *testing.T) {
	svc, _, _ := attendanceFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveAttendanceRequest{
		Date: day("2026-02-02"),
		Entries: []AttendanceEntry{
			{StudentID: "s1", Status: "present"},
			{StudentID: "s1", Status: "absent", Reason: strPtr("x")},
		},
	})
	require.Error(t, err)
}

func TestAttendanceSaveNormalizesDate(t *testing.T) {
	svc, repo, _ := attendanceFixture()

	noon := time.Date(2026, 2, 2, 12, 30, 0, 0, time.UTC)
	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveAttendanceRequest{
		Date:    noon,
		Entries: []AttendanceEntry{{StudentID: "s1", Status: "present"}},
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), repo.upserted[0].Date)
}

func TestAttendanceRegisterMergesRosterWithSavedRecords(t *testing.T) {
	svc, repo, _ := attendanceFixture()
	repo.records = []models.AttendanceRecordWithStudent{
		{
			AttendanceRecord: models.AttendanceRecord{ID: "rec-1", StudentID: "s1", Status: models.AttendancePresent},
			AdmissionNumber:  "001",
			StudentName:      "Amina Odhiambo",
		},
	}

	register, err := svc.Register(context.Background(), "class-1", "teacher-1", day("2026-02-02"))
	require.NoError(t, err)
	require.Len(t, register, 2)

	// the saved record survives, the unmarked student gets an empty status
	assert.Equal(t, "rec-1", register[0].ID)
	assert.Equal(t, models.AttendancePresent, register[0].Status)
	assert.Equal(t, "s2", register[1].StudentID)
	assert.Equal(t, "002", register[1].AdmissionNumber)
	assert.Empty(t, register[1].Status)
}

func TestAttendanceClassOwnershipEnforced(t *testing.T) {
	svc, _, _ := attendanceFixture()

	_, err := svc.Register(context.Background(), "class-1", "other-teacher", day("2026-02-02"))
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func strPtr(s string) *string { return &s }
