package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type classRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassWithCounts, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// CreateClassRequest names a new class. Name must be one of the four fixed
// grade levels; stream distinguishes parallel classes at the same level.
type CreateClassRequest struct {
	Name   string  `json:"name" validate:"required,class_level"`
	Stream *string `json:"stream" validate:"omitempty,max=50"`
	Year   int     `json:"year" validate:"omitempty,min=2000,max=2100"`
}

// ClassService manages a teacher's classes.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ClassService{repo: repo, validator: validate, logger: logger}
	svc.validator.RegisterValidation("class_level", func(fl validator.FieldLevel) bool {
		return models.ValidClassLevel(fl.Field().String())
	})
	return svc
}

// List returns the teacher's classes with roster counts.
func (s *ClassService) List(ctx context.Context, teacherID string) ([]models.ClassWithCounts, error) {
	classes, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get returns one class after an ownership check.
func (s *ClassService) Get(ctx context.Context, id, teacherID string) (*models.Class, error) {
	class, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Create registers a new class for the teacher.
func (s *ClassService) Create(ctx context.Context, teacherID string, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	year := req.Year
	if year == 0 {
		year = time.Now().UTC().Year()
	}
	class := models.Class{
		TeacherID: teacherID,
		Name:      req.Name,
		Stream:    req.Stream,
		Year:      year,
	}
	if err := s.repo.Create(ctx, &class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created", zap.String("classId", class.ID), zap.String("teacherId", teacherID))
	return &class, nil
}

// Delete removes a class and everything hanging off it.
func (s *ClassService) Delete(ctx context.Context, id, teacherID string) error {
	if _, err := s.Get(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}
	s.logger.Info("class deleted", zap.String("classId", id), zap.String("teacherId", teacherID))
	return nil
}
