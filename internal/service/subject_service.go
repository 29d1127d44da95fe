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

type subjectRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type subjectClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

// CreateSubjectRequest names a subject for a class.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// SubjectService manages the subjects taught to each class.
type SubjectService struct {
	repo      subjectRepository
	classes   subjectClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the service.
func NewSubjectService(repo subjectRepository, classes subjectClassRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns a class's subjects after an ownership check.
func (s *SubjectService) List(ctx context.Context, classID, teacherID string) ([]models.Subject, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	subjects, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Create adds a subject to a class; names are unique within the class.
func (s *SubjectService) Create(ctx context.Context, classID, teacherID string, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	subject := models.Subject{ClassID: classID, Name: strings.TrimSpace(req.Name)}
	if err := s.repo.Create(ctx, &subject); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject already exists in this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return &subject, nil
}

// Delete removes a subject and its marks.
func (s *SubjectService) Delete(ctx context.Context, id, teacherID string) error {
	if _, err := s.repo.FindOwned(ctx, id, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

func (s *SubjectService) ensureClassOwned(ctx context.Context, classID, teacherID string) error {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}
