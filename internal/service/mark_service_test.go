package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type mockMarkRepo struct {
	sheet    []models.MarkWithStudent
	upserted []models.Mark
}

func (m *mockMarkRepo) ListForSheet(ctx context.Context, classID, subjectID, examTypeID string, term int) ([]models.MarkWithStudent, error) {
	return m.sheet, nil
}

func (m *mockMarkRepo) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	m.upserted = marks
	return nil
}

type mockSheetSubjectRepo struct {
	subjects map[string]*models.Subject
}

func (m *mockSheetSubjectRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockSheetExamTypeRepo struct {
	types map[string]*models.ExamType
}

func (m *mockSheetExamTypeRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.ExamType, error) {
	if e, ok := m.types[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func markFixture() (*MarkService, *mockMarkRepo, *mockInvalidator) {
	repo := &mockMarkRepo{}
	invalidator := &mockInvalidator{}
	svc := NewMarkService(
		repo,
		&mockRosterClassRepo{},
		&mockRosterStudentRepo{students: []models.Student{
			{ID: "s1", ClassID: "class-1", AdmissionNumber: "001"},
			{ID: "s2", ClassID: "class-1", AdmissionNumber: "002"},
		}},
		&mockSheetSubjectRepo{subjects: map[string]*models.Subject{
			"subject-1": {ID: "subject-1", ClassID: "class-1", Name: "Mathematics"},
			"subject-2": {ID: "subject-2", ClassID: "class-9", Name: "Chemistry"},
		}},
		&mockSheetExamTypeRepo{types: map[string]*models.ExamType{
			"exam-1": {ID: "exam-1", TeacherID: "teacher-1", Name: "CAT 1"},
		}},
		invalidator,
		nil, nil,
	)
	return svc, repo, invalidator
}

func TestMarkSaveSheet(t *testing.T) {
	svc, repo, invalidator := markFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveMarksRequest{
		SubjectID:  "subject-1",
		ExamTypeID: "exam-1",
		Term:       2,
		Entries: []MarkEntry{
			{StudentID: "s1", Score: 67.5},
			{StudentID: "s2", Score: 0},
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.upserted, 2)

	assert.Equal(t, 67.5, repo.upserted[0].Score)
	assert.Equal(t, models.MarkOutOf, repo.upserted[0].OutOf)
	assert.Equal(t, 2, repo.upserted[0].Term)
	assert.Equal(t, 0.0, repo.upserted[1].Score, "zero is a recordable score")
	assert.Equal(t, []string{"teacher-1/class-1"}, invalidator.invalidated)
}

func TestMarkSaveRejectsScoreOutOfRange(t *testing.T) {
	svc, repo, _ := markFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveMarksRequest{
		SubjectID:  "subject-1",
		ExamTypeID: "exam-1",
		Term:       1,
		Entries:    []MarkEntry{{StudentID: "s1", Score: 101}},
	})
	require.Error(t, err)
	assert.Empty(t, repo.upserted)
}

func TestMarkSaveRejectsInvalidTerm(t *testing.T) {
	svc, _, _ := markFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveMarksRequest{
		SubjectID:  "subject-1",
		ExamTypeID: "exam-1",
		Term:       4,
		Entries:    []MarkEntry{{StudentID: "s1", Score: 50}},
	})
	require.Error(t, err)
}

func TestMarkSaveRejectsSubjectFromAnotherClass(t *testing.T) {
	svc, repo, _ := markFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveMarksRequest{
		SubjectID:  "subject-2",
		ExamTypeID: "exam-1",
		Term:       1,
		Entries:    []MarkEntry{{StudentID: "s1", Score: 50}},
	})
	require.Error(t, err)
	assert.Empty(t, repo.upserted)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestMarkSaveRejectsUnknownExamType(t *testing.T) {
	svc, _, _ := markFixture()

	err := svc.Save(context.Background(), "class-1", "teacher-1", SaveMarksRequest{
		SubjectID:  "subject-1",
		ExamTypeID: "exam-unknown",
		Term:       1,
		Entries:    []MarkEntry{{StudentID: "s1", Score: 50}},
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestMarkSheetRejectsBadTerm(t *testing.T) {
	svc, _, _ := markFixture()

	_, err := svc.Sheet(context.Background(), "class-1", "teacher-1", "subject-1", "exam-1", 0)
	require.Error(t, err)
}
