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

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	UpdateProfile(ctx context.Context, teacher *models.Teacher) error
}

// TeacherService serves the authenticated teacher's profile.
type TeacherService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// Profile returns the teacher's own account.
func (s *TeacherService) Profile(ctx context.Context, teacherID string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	return teacher, nil
}

// UpdateProfile rewrites the teacher's name, email and school.
func (s *TeacherService) UpdateProfile(ctx context.Context, teacherID string, req models.UpdateProfileRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	teacher, err := s.Profile(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	teacher.FullName = req.FullName
	teacher.Email = req.Email
	teacher.SchoolName = req.SchoolName
	teacher.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateProfile(ctx, teacher); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "another account already uses this email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}
	return teacher, nil
}
