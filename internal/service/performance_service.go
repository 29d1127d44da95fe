package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	"github.com/mwalimu-app/mwalimu-api/internal/repository"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

// trendWeeks caps the attendance trend at the most recent ISO weeks.
const trendWeeks = 6

type performanceClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

type performanceStudentRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

type performanceMarkRepository interface {
	StudentScores(ctx context.Context, classID string) ([]models.StudentMarkRow, error)
}

type performanceAttendanceRepository interface {
	StatusRows(ctx context.Context, classID string) ([]repository.AttendanceStatusRow, error)
}

type gradeScaleProvider interface {
	Get(ctx context.Context, teacherID string) (*models.GradeScale, error)
}

// PerformanceService computes class performance summaries: per-student
// adjusted averages, grade distribution, attendance rate and weekly trend.
type PerformanceService struct {
	classes    performanceClassRepository
	students   performanceStudentRepository
	marks      performanceMarkRepository
	attendance performanceAttendanceRepository
	scales     gradeScaleProvider
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewPerformanceService constructs the aggregator.
func NewPerformanceService(
	classes performanceClassRepository,
	students performanceStudentRepository,
	marks performanceMarkRepository,
	attendance performanceAttendanceRepository,
	scales gradeScaleProvider,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *PerformanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{
		classes:    classes,
		students:   students,
		marks:      marks,
		attendance: attendance,
		scales:     scales,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Summary aggregates the class. The boolean reports whether the payload came
// from cache.
func (s *PerformanceService) Summary(ctx context.Context, classID, teacherID string) (*models.PerformanceSummary, bool, error) {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	cacheKey := PerformanceCacheKey(teacherID, classID)
	var cached models.PerformanceSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	scale, err := s.scales.Get(ctx, teacherID)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	summary, err := s.compute(ctx, classID, scale)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("performance_summary", time.Since(start))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
			s.logger.Warn("cache performance summary", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary for a class after roster, attendance or
// mark writes.
func (s *PerformanceService) Invalidate(ctx context.Context, teacherID, classID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, PerformanceCacheKey(teacherID, classID)); err != nil {
		s.logger.Warn("invalidate performance cache", zap.String("class_id", classID), zap.Error(err))
	}
}

// PerformanceCacheKey builds the cache key for one class summary. The key is
// teacher-scoped so that a grade-scale change can drop every summary it
// affects with one pattern delete.
func PerformanceCacheKey(teacherID, classID string) string {
	return fmt.Sprintf("performance:%s:%s", teacherID, classID)
}

// TeacherPerformanceCachePattern matches every cached summary for one teacher.
func TeacherPerformanceCachePattern(teacherID string) string {
	return fmt.Sprintf("performance:%s:*", teacherID)
}

func (s *PerformanceService) compute(ctx context.Context, classID string, scale *models.GradeScale) (*models.PerformanceSummary, error) {
	students, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	scores, err := s.marks.StudentScores(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	attendanceRows, err := s.attendance.StatusRows(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	sums := make(map[string]float64, len(students))
	counts := make(map[string]int, len(students))
	for _, row := range scores {
		sums[row.StudentID] += row.Score
		counts[row.StudentID]++
	}

	distribution := make(map[string]int, len(models.GradeLabels))
	for _, label := range models.GradeLabels {
		distribution[label] = 0
	}

	var averages []models.StudentAverage
	var adjustedTotal float64
	for _, student := range students {
		n := counts[student.ID]
		if n == 0 {
			continue
		}
		adjusted := scale.AdjustedAverage(sums[student.ID] / float64(n))
		grade := scale.GradeFor(adjusted)
		distribution[grade]++
		adjustedTotal += adjusted
		averages = append(averages, models.StudentAverage{
			StudentID:       student.ID,
			AdmissionNumber: student.AdmissionNumber,
			StudentName:     student.FullName,
			Average:         round1(adjusted),
			Grade:           grade,
		})
	}

	var classAverage float64
	if len(averages) > 0 {
		classAverage = adjustedTotal / float64(len(averages))
	}

	return &models.PerformanceSummary{
		ClassID:           classID,
		ClassAverage:      round1(classAverage),
		ClassGrade:        scale.GradeFor(classAverage),
		GradeDistribution: distribution,
		AttendanceRate:    overallAttendanceRate(attendanceRows),
		AttendanceTrend:   attendanceTrend(attendanceRows),
		StudentAverages:   averages,
	}, nil
}

func overallAttendanceRate(rows []repository.AttendanceStatusRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	present := 0
	for _, row := range rows {
		if row.Status == models.AttendancePresent {
			present++
		}
	}
	return round1(float64(present) / float64(len(rows)) * 100)
}

// attendanceTrend buckets records by ISO week and returns the most recent
// weeks in chronological order.
func attendanceTrend(rows []repository.AttendanceStatusRow) []models.WeeklyAttendancePoint {
	type bucket struct {
		present int
		total   int
	}
	type weekKey struct {
		year int
		week int
	}

	buckets := make(map[weekKey]*bucket)
	for _, row := range rows {
		year, week := row.Date.ISOWeek()
		key := weekKey{year: year, week: week}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		b.total++
		if row.Status == models.AttendancePresent {
			b.present++
		}
	}

	keys := make([]weekKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].week < keys[j].week
	})
	if len(keys) > trendWeeks {
		keys = keys[len(keys)-trendWeeks:]
	}

	trend := make([]models.WeeklyAttendancePoint, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		trend = append(trend, models.WeeklyAttendancePoint{
			Year: key.year,
			Week: key.week,
			Rate: round1(float64(b.present) / float64(b.total) * 100),
		})
	}
	return trend
}

// round1 rounds to one decimal place for presentation.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
