package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type mockGradeScaleRepo struct {
	scale   *models.GradeScale
	upserts int
}

func (m *mockGradeScaleRepo) FindByTeacher(_ context.Context, teacherID string) (*models.GradeScale, error) {
	if m.scale == nil || m.scale.TeacherID != teacherID {
		return nil, sql.ErrNoRows
	}
	return m.scale, nil
}

func (m *mockGradeScaleRepo) Upsert(_ context.Context, scale *models.GradeScale) error {
	m.upserts++
	m.scale = scale
	return nil
}

func validScaleRequest() UpdateGradeScaleRequest {
	return UpdateGradeScaleRequest{
		MinA: 80, MinAMinus: 75, MinBPlus: 70, MinB: 65, MinBMinus: 60,
		MinCPlus: 55, MinC: 50, MinCMinus: 45, MinDPlus: 40, MinD: 35, MinDMinus: 30,
		AverageMultiplier: 1,
	}
}

func TestGradeScaleGetSeedsDefaultsOnFirstRead(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	svc := NewGradeScaleService(repo, nil, nil, nil)

	scale, err := svc.Get(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.NotNil(t, scale)

	assert.Equal(t, 1, repo.upserts)
	assert.Equal(t, "teacher-1", scale.TeacherID)
	assert.Equal(t, 80.0, scale.MinA)
	assert.Equal(t, 30.0, scale.MinDMinus)
	assert.Equal(t, 1, scale.AverageMultiplier)
}

func TestGradeScaleGetReturnsStoredScale(t *testing.T) {
	stored := models.DefaultGradeScale("teacher-1")
	stored.MinA = 85
	repo := &mockGradeScaleRepo{scale: stored}
	svc := NewGradeScaleService(repo, nil, nil, nil)

	scale, err := svc.Get(context.Background(), "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, 85.0, scale.MinA)
	assert.Zero(t, repo.upserts)
}

func TestGradeScaleUpdateRejectsUnorderedThresholds(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	svc := NewGradeScaleService(repo, nil, nil, nil)

	req := validScaleRequest()
	req.MinB = 72 // above MinBPlus

	_, err := svc.Update(context.Background(), "teacher-1", req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "threshold for B+ must be greater than threshold for B")
	assert.Zero(t, repo.upserts)
}

func TestGradeScaleUpdateRejectsOutOfRangeThresholds(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	svc := NewGradeScaleService(repo, nil, nil, nil)

	req := validScaleRequest()
	req.MinA = 105

	_, err := svc.Update(context.Background(), "teacher-1", req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Message, "cannot exceed 100")
}

func TestGradeScaleUpdateRejectsBadMultiplier(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	svc := NewGradeScaleService(repo, nil, nil, nil)

	req := validScaleRequest()
	req.AverageMultiplier = 3

	_, err := svc.Update(context.Background(), "teacher-1", req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestGradeScaleUpdateStoresCustomScale(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	svc := NewGradeScaleService(repo, nil, nil, nil)

	req := validScaleRequest()
	req.MinA = 85
	req.AverageMultiplier = 2

	scale, err := svc.Update(context.Background(), "teacher-1", req)
	require.NoError(t, err)

	assert.Equal(t, 85.0, scale.MinA)
	assert.Equal(t, 2, scale.AverageMultiplier)
	assert.Equal(t, 1, repo.upserts)
	assert.Same(t, scale, repo.scale)
}

func TestGradeScaleUpdateDropsCachedSummaries(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, 0, nil, true)
	svc := NewGradeScaleService(repo, cache, nil, nil)

	_, err := svc.Update(context.Background(), "teacher-1", validScaleRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{TeacherPerformanceCachePattern("teacher-1")}, cacheRepo.deletedPatterns)
}

func TestGradeScaleRejectedUpdateKeepsCachedSummaries(t *testing.T) {
	repo := &mockGradeScaleRepo{}
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, 0, nil, true)
	svc := NewGradeScaleService(repo, cache, nil, nil)

	req := validScaleRequest()
	req.MinB = 72

	_, err := svc.Update(context.Background(), "teacher-1", req)
	require.Error(t, err)
	assert.Empty(t, cacheRepo.deletedPatterns)
}

func TestGradeScaleGetWrapsRepositoryFailure(t *testing.T) {
	svc := NewGradeScaleService(failingScaleRepo{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "teacher-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

type failingScaleRepo struct{}

func (failingScaleRepo) FindByTeacher(context.Context, string) (*models.GradeScale, error) {
	return nil, errors.New("connection reset")
}

func (failingScaleRepo) Upsert(context.Context, *models.GradeScale) error {
	return errors.New("connection reset")
}

type mockCacheRepo struct {
	deletedPatterns []string
}

func (m *mockCacheRepo) Get(context.Context, string, interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.deletedPatterns = append(m.deletedPatterns, pattern)
	return nil
}
