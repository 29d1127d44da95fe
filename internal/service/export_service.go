package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/export"
)

type exportClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

type exportMarkRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.MarkWithStudent, error)
}

type exportSubjectRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

type exportExamTypeRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ExamType, error)
}

type performanceSummarizer interface {
	Summary(ctx context.Context, classID, teacherID string) (*models.PerformanceSummary, bool, error)
}

// ExportFile is a rendered download with its suggested filename and MIME type.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders class data into CSV and PDF downloads.
type ExportService struct {
	classes     exportClassRepository
	marks       exportMarkRepository
	subjects    exportSubjectRepository
	examTypes   exportExamTypeRepository
	performance performanceSummarizer
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(classes exportClassRepository, marks exportMarkRepository, subjects exportSubjectRepository, examTypes exportExamTypeRepository, performance performanceSummarizer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		classes:     classes,
		marks:       marks,
		subjects:    subjects,
		examTypes:   examTypes,
		performance: performance,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// MarksCSV renders every mark stored for a class as a flat CSV sheet.
func (s *ExportService) MarksCSV(ctx context.Context, classID, teacherID string) (*ExportFile, error) {
	class, err := s.findOwnedClass(ctx, classID, teacherID)
	if err != nil {
		return nil, err
	}

	marks, err := s.marks.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	subjects, err := s.subjects.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	types, err := s.examTypes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam types")
	}

	subjectNames := make(map[string]string, len(subjects))
	for _, subject := range subjects {
		subjectNames[subject.ID] = subject.Name
	}
	typeNames := make(map[string]string, len(types))
	for _, examType := range types {
		typeNames[examType.ID] = examType.Name
	}

	sheet := export.Sheet{
		Headers: []string{"Admission No", "Student", "Subject", "Exam", "Term", "Score"},
		Rows:    make([][]string, 0, len(marks)),
	}
	for _, mark := range marks {
		sheet.Rows = append(sheet.Rows, []string{
			mark.AdmissionNumber,
			mark.StudentName,
			subjectNames[mark.SubjectID],
			typeNames[mark.ExamTypeID],
			strconv.Itoa(mark.Term),
			strconv.FormatFloat(mark.Score, 'f', -1, 64),
		})
	}

	data, err := s.csv.Render(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportFile{
		Filename:    exportFilename("marks", class, "csv"),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

// PerformancePDF renders the class performance summary as a PDF report with
// per-student averages in the table body.
func (s *ExportService) PerformancePDF(ctx context.Context, classID, teacherID string) (*ExportFile, error) {
	class, err := s.findOwnedClass(ctx, classID, teacherID)
	if err != nil {
		return nil, err
	}

	summary, _, err := s.performance.Summary(ctx, classID, teacherID)
	if err != nil {
		return nil, err
	}

	items := []export.ReportSummaryItem{
		{Label: "Class", Value: class.DisplayName()},
		{Label: "Class Average", Value: fmt.Sprintf("%.1f (%s)", summary.ClassAverage, summary.ClassGrade)},
		{Label: "Attendance Rate", Value: fmt.Sprintf("%.1f%%", summary.AttendanceRate)},
		{Label: "Generated", Value: time.Now().UTC().Format("2 Jan 2006")},
	}

	sheet := export.Sheet{
		Headers: []string{"Admission No", "Student", "Average", "Grade"},
		Rows:    make([][]string, 0, len(summary.StudentAverages)),
	}
	for _, avg := range summary.StudentAverages {
		sheet.Rows = append(sheet.Rows, []string{
			avg.AdmissionNumber,
			avg.StudentName,
			fmt.Sprintf("%.1f", avg.Average),
			avg.Grade,
		})
	}

	data, err := s.pdf.RenderReport("Class Performance Report", items, sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportFile{
		Filename:    exportFilename("performance", class, "pdf"),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

func (s *ExportService) findOwnedClass(ctx context.Context, classID, teacherID string) (*models.Class, error) {
	class, err := s.classes.FindOwned(ctx, classID, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

func exportFilename(prefix string, class *models.Class, ext string) string {
	slug := strings.ToLower(class.DisplayName())
	slug = strings.ReplaceAll(slug, " ", "-")
	return fmt.Sprintf("%s_%s.%s", prefix, slug, ext)
}
