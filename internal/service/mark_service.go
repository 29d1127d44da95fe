package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type markRepository interface {
	ListForSheet(ctx context.Context, classID, subjectID, examTypeID string, term int) ([]models.MarkWithStudent, error)
	BulkUpsert(ctx context.Context, marks []models.Mark) error
}

type markClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

type markStudentRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type markSubjectRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Subject, error)
}

type markExamTypeRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.ExamType, error)
}

// MarkEntry is one student's score on a marks sheet.
type MarkEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Score     float64 `json:"score" validate:"min=0,max=100"`
}

// SaveMarksRequest is one sheet submission: every score shares the same
// subject, exam type and term.
type SaveMarksRequest struct {
	SubjectID  string      `json:"subject_id" validate:"required"`
	ExamTypeID string      `json:"exam_type_id" validate:"required"`
	Term       int         `json:"term" validate:"required,min=1,max=3"`
	Entries    []MarkEntry `json:"entries" validate:"required,min=1,dive"`
}

// MarkService records and reads exam marks sheet by sheet.
type MarkService struct {
	repo        markRepository
	classes     markClassRepository
	students    markStudentRepository
	subjects    markSubjectRepository
	examTypes   markExamTypeRepository
	performance performanceCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMarkService constructs the service.
func NewMarkService(repo markRepository, classes markClassRepository, students markStudentRepository, subjects markSubjectRepository, examTypes markExamTypeRepository, performance performanceCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkService{
		repo:        repo,
		classes:     classes,
		students:    students,
		subjects:    subjects,
		examTypes:   examTypes,
		performance: performance,
		validator:   validate,
		logger:      logger,
	}
}

// Sheet returns existing marks for one (subject, exam type, term) so a sheet
// can be reopened for editing.
func (s *MarkService) Sheet(ctx context.Context, classID, teacherID, subjectID, examTypeID string, term int) ([]models.MarkWithStudent, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	if !models.ValidTerm(term) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term must be 1, 2 or 3")
	}
	marks, err := s.repo.ListForSheet(ctx, classID, subjectID, examTypeID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks sheet")
	}
	return marks, nil
}

// Save upserts a marks sheet in one transaction. Re-submitting a sheet
// overwrites the previous scores for its (student, subject, exam, term) keys.
func (s *MarkService) Save(ctx context.Context, classID, teacherID string, req SaveMarksRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return err
	}

	subject, err := s.subjects.FindOwned(ctx, req.SubjectID, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.ClassID != classID {
		return appErrors.Clone(appErrors.ErrValidation, "subject belongs to a different class")
	}
	if _, err := s.examTypes.FindOwned(ctx, req.ExamTypeID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam type")
	}

	roster, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	inClass := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		inClass[st.ID] = struct{}{}
	}

	marks := make([]models.Mark, 0, len(req.Entries))
	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		if _, ok := inClass[entry.StudentID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in this class", entry.StudentID))
		}
		if _, dup := seen[entry.StudentID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
		marks = append(marks, models.Mark{
			StudentID:  entry.StudentID,
			SubjectID:  req.SubjectID,
			ExamTypeID: req.ExamTypeID,
			Term:       req.Term,
			Score:      entry.Score,
			OutOf:      models.MarkOutOf,
		})
	}

	if err := s.repo.BulkUpsert(ctx, marks); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save marks")
	}
	if s.performance != nil {
		s.performance.Invalidate(ctx, teacherID, classID)
	}
	return nil
}

func (s *MarkService) ensureClassOwned(ctx context.Context, classID, teacherID string) error {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}
