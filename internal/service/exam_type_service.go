package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type examTypeRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ExamType, error)
	SeedDefaults(ctx context.Context, teacherID string) error
	FindOwned(ctx context.Context, id, teacherID string) (*models.ExamType, error)
	Create(ctx context.Context, examType *models.ExamType) error
	CountMarks(ctx context.Context, examTypeID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// CreateExamTypeRequest names a new assessment category.
type CreateExamTypeRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ExamTypeService manages per-teacher assessment categories.
type ExamTypeService struct {
	repo      examTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamTypeService constructs the service.
func NewExamTypeService(repo examTypeRepository, validate *validator.Validate, logger *zap.Logger) *ExamTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamTypeService{repo: repo, validator: validate, logger: logger}
}

// List returns the teacher's exam types, seeding the defaults on first use.
func (s *ExamTypeService) List(ctx context.Context, teacherID string) ([]models.ExamType, error) {
	types, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam types")
	}
	if len(types) == 0 {
		if err := s.repo.SeedDefaults(ctx, teacherID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed exam types")
		}
		types, err = s.repo.ListByTeacher(ctx, teacherID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam types")
		}
	}
	return types, nil
}

// Create adds a custom exam type; names are unique per teacher.
func (s *ExamTypeService) Create(ctx context.Context, teacherID string, req CreateExamTypeRequest) (*models.ExamType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam type payload")
	}
	examType := models.ExamType{TeacherID: teacherID, Name: strings.TrimSpace(req.Name)}
	if err := s.repo.Create(ctx, &examType); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "exam type already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam type")
	}
	return &examType, nil
}

// Delete removes an exam type unless stored marks reference it.
func (s *ExamTypeService) Delete(ctx context.Context, id, teacherID string) error {
	if _, err := s.repo.FindOwned(ctx, id, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam type")
	}
	count, err := s.repo.CountMarks(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam type usage")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrBusinessRule, "exam type has recorded marks and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam type")
	}
	return nil
}
