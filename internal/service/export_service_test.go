package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type mockExportClassRepo struct {
	class *models.Class
}

func (m *mockExportClassRepo) FindOwned(_ context.Context, id, teacherID string) (*models.Class, error) {
	if m.class != nil && m.class.ID == id && m.class.TeacherID == teacherID {
		return m.class, nil
	}
	return nil, sql.ErrNoRows
}

type mockExportMarkRepo struct {
	marks []models.MarkWithStudent
}

func (m *mockExportMarkRepo) ListByClass(context.Context, string) ([]models.MarkWithStudent, error) {
	return m.marks, nil
}

type mockExportSubjectRepo struct {
	subjects []models.Subject
}

func (m *mockExportSubjectRepo) ListByClass(context.Context, string) ([]models.Subject, error) {
	return m.subjects, nil
}

type mockExportExamTypeRepo struct {
	types []models.ExamType
}

func (m *mockExportExamTypeRepo) ListByTeacher(context.Context, string) ([]models.ExamType, error) {
	return m.types, nil
}

type mockSummarizer struct {
	summary *models.PerformanceSummary
}

func (m *mockSummarizer) Summary(context.Context, string, string) (*models.PerformanceSummary, bool, error) {
	return m.summary, false, nil
}

func exportFixtureClass() *models.Class {
	stream := "East"
	return &models.Class{ID: "class-1", TeacherID: "teacher-1", Name: "Form 3", Stream: &stream, Year: 2026}
}

func TestExportMarksCSV(t *testing.T) {
	svc := NewExportService(
		&mockExportClassRepo{class: exportFixtureClass()},
		&mockExportMarkRepo{marks: []models.MarkWithStudent{
			{
				Mark:            models.Mark{StudentID: "student-1", SubjectID: "subject-1", ExamTypeID: "exam-1", Term: 1, Score: 67.5},
				AdmissionNumber: "1001",
				StudentName:     "Achieng Odhiambo",
			},
		}},
		&mockExportSubjectRepo{subjects: []models.Subject{{ID: "subject-1", ClassID: "class-1", Name: "Mathematics"}}},
		&mockExportExamTypeRepo{types: []models.ExamType{{ID: "exam-1", TeacherID: "teacher-1", Name: "Mid-Term"}}},
		&mockSummarizer{},
		nil,
	)

	file, err := svc.MarksCSV(context.Background(), "class-1", "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, "marks_form-3-east.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	body := string(file.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Admission No,Student,Subject,Exam,Term,Score", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "1001")
	assert.Contains(t, lines[1], "Mathematics")
	assert.Contains(t, lines[1], "Mid-Term")
	assert.Contains(t, lines[1], "67.5")
}

func TestExportPerformancePDF(t *testing.T) {
	svc := NewExportService(
		&mockExportClassRepo{class: exportFixtureClass()},
		&mockExportMarkRepo{},
		&mockExportSubjectRepo{},
		&mockExportExamTypeRepo{},
		&mockSummarizer{summary: &models.PerformanceSummary{
			ClassID:      "class-1",
			ClassAverage: 72.5,
			ClassGrade:   "B+",
			StudentAverages: []models.StudentAverage{
				{StudentID: "student-1", AdmissionNumber: "1001", StudentName: "Achieng Odhiambo", Average: 85.0, Grade: "A"},
			},
			AttendanceRate: 93.4,
		}},
		nil,
	)

	file, err := svc.PerformancePDF(context.Background(), "class-1", "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, "performance_form-3-east.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Data), "%PDF"))
}

func TestExportRejectsForeignClass(t *testing.T) {
	svc := NewExportService(
		&mockExportClassRepo{class: exportFixtureClass()},
		&mockExportMarkRepo{},
		&mockExportSubjectRepo{},
		&mockExportExamTypeRepo{},
		&mockSummarizer{},
		nil,
	)

	_, err := svc.MarksCSV(context.Background(), "class-1", "teacher-2")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
