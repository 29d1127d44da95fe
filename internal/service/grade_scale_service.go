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

type gradeScaleRepository interface {
	FindByTeacher(ctx context.Context, teacherID string) (*models.GradeScale, error)
	Upsert(ctx context.Context, scale *models.GradeScale) error
}

// UpdateGradeScaleRequest carries the eleven thresholds and the multiplier.
type UpdateGradeScaleRequest struct {
	MinA              float64 `json:"min_a"`
	MinAMinus         float64 `json:"min_a_minus"`
	MinBPlus          float64 `json:"min_b_plus"`
	MinB              float64 `json:"min_b"`
	MinBMinus         float64 `json:"min_b_minus"`
	MinCPlus          float64 `json:"min_c_plus"`
	MinC              float64 `json:"min_c"`
	MinCMinus         float64 `json:"min_c_minus"`
	MinDPlus          float64 `json:"min_d_plus"`
	MinD              float64 `json:"min_d"`
	MinDMinus         float64 `json:"min_d_minus"`
	AverageMultiplier int     `json:"average_multiplier" validate:"required,oneof=1 2"`
}

// GradeScaleService owns the per-teacher grading configuration.
type GradeScaleService struct {
	repo      gradeScaleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeScaleService constructs the service.
func NewGradeScaleService(repo gradeScaleRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GradeScaleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeScaleService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns the teacher's grade scale, seeding the KCSE defaults the first
// time the teacher reads their settings.
func (s *GradeScaleService) Get(ctx context.Context, teacherID string) (*models.GradeScale, error) {
	scale, err := s.repo.FindByTeacher(ctx, teacherID)
	if err == nil {
		return scale, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade scale")
	}

	seeded := models.DefaultGradeScale(teacherID)
	if err := s.repo.Upsert(ctx, seeded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed grade scale")
	}
	return seeded, nil
}

// Update validates and stores a new scale. On validation failure the stored
// scale is left untouched.
func (s *GradeScaleService) Update(ctx context.Context, teacherID string, req UpdateGradeScaleRequest) (*models.GradeScale, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "average_multiplier must be 1 or 2")
	}

	scale := &models.GradeScale{
		TeacherID:         teacherID,
		MinA:              req.MinA,
		MinAMinus:         req.MinAMinus,
		MinBPlus:          req.MinBPlus,
		MinB:              req.MinB,
		MinBMinus:         req.MinBMinus,
		MinCPlus:          req.MinCPlus,
		MinC:              req.MinC,
		MinCMinus:         req.MinCMinus,
		MinDPlus:          req.MinDPlus,
		MinD:              req.MinD,
		MinDMinus:         req.MinDMinus,
		AverageMultiplier: req.AverageMultiplier,
	}

	if err := validateThresholds(scale); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, scale); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade scale")
	}
	// A new scale regrades every class, so all of the teacher's cached
	// summaries are stale.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, TeacherPerformanceCachePattern(teacherID)); err != nil {
			s.logger.Warn("invalidate performance cache", zap.String("teacher_id", teacherID), zap.Error(err))
		}
	}
	return scale, nil
}

// validateThresholds enforces strictly decreasing thresholds bounded to
// [0, 100].
func validateThresholds(scale *models.GradeScale) error {
	bands := scale.Bands()
	if bands[0].Min > 100 {
		return appErrors.Clone(appErrors.ErrValidation, "the A threshold cannot exceed 100")
	}
	if bands[len(bands)-1].Min < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "the D- threshold cannot be negative")
	}
	for i := 1; i < len(bands); i++ {
		if bands[i-1].Min <= bands[i].Min {
			msg := fmt.Sprintf("threshold for %s must be greater than threshold for %s", bands[i-1].Label, bands[i].Label)
			return appErrors.Clone(appErrors.ErrValidation, msg)
		}
	}
	return nil
}
