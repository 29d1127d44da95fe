package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

func uniqueViolationErr() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

type mockExamTypeRepo struct {
	types      []models.ExamType
	markCounts map[string]int
	seeded     bool
	deleted    []string
}

func (m *mockExamTypeRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.ExamType, error) {
	var out []models.ExamType
	for _, et := range m.types {
		if et.TeacherID == teacherID {
			out = append(out, et)
		}
	}
	return out, nil
}

func (m *mockExamTypeRepo) SeedDefaults(_ context.Context, teacherID string) error {
	m.seeded = true
	for _, name := range models.DefaultExamTypeNames {
		m.types = append(m.types, models.ExamType{
			ID:        fmt.Sprintf("exam-%d", len(m.types)+1),
			TeacherID: teacherID,
			Name:      name,
		})
	}
	return nil
}

func (m *mockExamTypeRepo) FindOwned(_ context.Context, id, teacherID string) (*models.ExamType, error) {
	for i := range m.types {
		if m.types[i].ID == id && m.types[i].TeacherID == teacherID {
			return &m.types[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockExamTypeRepo) Create(_ context.Context, examType *models.ExamType) error {
	for _, et := range m.types {
		if et.TeacherID == examType.TeacherID && et.Name == examType.Name {
			return uniqueViolationErr()
		}
	}
	examType.ID = fmt.Sprintf("exam-%d", len(m.types)+1)
	m.types = append(m.types, *examType)
	return nil
}

func (m *mockExamTypeRepo) CountMarks(_ context.Context, examTypeID string) (int, error) {
	return m.markCounts[examTypeID], nil
}

func (m *mockExamTypeRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestExamTypeListSeedsDefaultsOnFirstUse(t *testing.T) {
	repo := &mockExamTypeRepo{}
	svc := NewExamTypeService(repo, nil, nil)

	types, err := svc.List(context.Background(), "teacher-1")
	require.NoError(t, err)

	assert.True(t, repo.seeded)
	require.Len(t, types, 4)
	assert.Equal(t, "CAT 1", types[0].Name)
	assert.Equal(t, "End-Term", types[3].Name)
}

func TestExamTypeListSkipsSeedWhenTypesExist(t *testing.T) {
	repo := &mockExamTypeRepo{types: []models.ExamType{
		{ID: "exam-1", TeacherID: "teacher-1", Name: "Opener"},
	}}
	svc := NewExamTypeService(repo, nil, nil)

	types, err := svc.List(context.Background(), "teacher-1")
	require.NoError(t, err)

	assert.False(t, repo.seeded)
	require.Len(t, types, 1)
	assert.Equal(t, "Opener", types[0].Name)
}

func TestExamTypeCreateRejectsDuplicateName(t *testing.T) {
	repo := &mockExamTypeRepo{types: []models.ExamType{
		{ID: "exam-1", TeacherID: "teacher-1", Name: "Opener"},
	}}
	svc := NewExamTypeService(repo, nil, nil)

	_, err := svc.Create(context.Background(), "teacher-1", CreateExamTypeRequest{Name: "Opener"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestExamTypeCreateTrimsName(t *testing.T) {
	repo := &mockExamTypeRepo{}
	svc := NewExamTypeService(repo, nil, nil)

	created, err := svc.Create(context.Background(), "teacher-1", CreateExamTypeRequest{Name: "  Opener  "})
	require.NoError(t, err)

	assert.Equal(t, "Opener", created.Name)
	assert.NotEmpty(t, created.ID)
}

func TestExamTypeDeleteBlockedWhenMarksExist(t *testing.T) {
	repo := &mockExamTypeRepo{
		types:      []models.ExamType{{ID: "exam-1", TeacherID: "teacher-1", Name: "Opener"}},
		markCounts: map[string]int{"exam-1": 12},
	}
	svc := NewExamTypeService(repo, nil, nil)

	err := svc.Delete(context.Background(), "exam-1", "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "recorded marks")
	assert.Empty(t, repo.deleted)
}

func TestExamTypeDeleteRemovesUnusedType(t *testing.T) {
	repo := &mockExamTypeRepo{
		types: []models.ExamType{{ID: "exam-1", TeacherID: "teacher-1", Name: "Opener"}},
	}
	svc := NewExamTypeService(repo, nil, nil)

	err := svc.Delete(context.Background(), "exam-1", "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"exam-1"}, repo.deleted)
}

func TestExamTypeDeleteNotFoundForForeignTeacher(t *testing.T) {
	repo := &mockExamTypeRepo{
		types: []models.ExamType{{ID: "exam-1", TeacherID: "teacher-2", Name: "Opener"}},
	}
	svc := NewExamTypeService(repo, nil, nil)

	err := svc.Delete(context.Background(), "exam-1", "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
