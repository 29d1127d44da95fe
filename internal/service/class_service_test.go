package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type mockClassRepo struct {
	classes []models.Class
	deleted []string
}

func (m *mockClassRepo) ListByTeacher(_ context.Context, teacherID string) ([]models.ClassWithCounts, error) {
	var out []models.ClassWithCounts
	for _, c := range m.classes {
		if c.TeacherID == teacherID {
			out = append(out, models.ClassWithCounts{Class: c})
		}
	}
	return out, nil
}

func (m *mockClassRepo) FindOwned(_ context.Context, id, teacherID string) (*models.Class, error) {
	for i := range m.classes {
		if m.classes[i].ID == id && m.classes[i].TeacherID == teacherID {
			return &m.classes[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(_ context.Context, class *models.Class) error {
	class.ID = fmt.Sprintf("class-%d", len(m.classes)+1)
	m.classes = append(m.classes, *class)
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestClassCreateAcceptsFixedLevels(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, nil)

	stream := "East"
	class, err := svc.Create(context.Background(), "teacher-1", CreateClassRequest{
		Name:   "Form 3",
		Stream: &stream,
		Year:   2026,
	})
	require.NoError(t, err)

	assert.Equal(t, "Form 3", class.Name)
	assert.Equal(t, "East", *class.Stream)
	assert.Equal(t, 2026, class.Year)
}

func TestClassCreateRejectsUnknownLevel(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), "teacher-1", CreateClassRequest{Name: "Grade 7"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassCreateDefaultsYear(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil)

	class, err := svc.Create(context.Background(), "teacher-1", CreateClassRequest{Name: "Form 1"})
	require.NoError(t, err)
	assert.Equal(t, time.Now().UTC().Year(), class.Year)
}

func TestClassGetHidesForeignClass(t *testing.T) {
	repo := &mockClassRepo{classes: []models.Class{
		{ID: "class-1", TeacherID: "teacher-2", Name: "Form 2", Year: 2026},
	}}
	svc := NewClassService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "class-1", "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassDeleteChecksOwnershipFirst(t *testing.T) {
	repo := &mockClassRepo{classes: []models.Class{
		{ID: "class-1", TeacherID: "teacher-1", Name: "Form 2", Year: 2026},
	}}
	svc := NewClassService(repo, nil, nil)

	require.Error(t, svc.Delete(context.Background(), "class-1", "teacher-2"))
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "class-1", "teacher-1"))
	assert.Equal(t, []string{"class-1"}, repo.deleted)
}

func TestClassListScopedToTeacher(t *testing.T) {
	repo := &mockClassRepo{classes: []models.Class{
		{ID: "class-1", TeacherID: "teacher-1", Name: "Form 1", Year: 2026},
		{ID: "class-2", TeacherID: "teacher-2", Name: "Form 2", Year: 2026},
	}}
	svc := NewClassService(repo, nil, nil)

	classes, err := svc.List(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "class-1", classes[0].ID)
}
