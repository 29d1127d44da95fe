package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type attendanceRepository interface {
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecordWithStudent, error)
	BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error
	DaySummaries(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceDaySummary, int, error)
}

type attendanceClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

type attendanceStudentRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
}

// performanceCacheInvalidator is satisfied by PerformanceService; write paths
// that change a class's numbers call it so the next summary recomputes.
type performanceCacheInvalidator interface {
	Invalidate(ctx context.Context, teacherID, classID string)
}

// AttendanceEntry is one student's row in a register submission.
type AttendanceEntry struct {
	StudentID string  `json:"student_id" validate:"required"`
	Status    string  `json:"status" validate:"required,oneof=present absent"`
	Reason    *string `json:"reason"`
}

// SaveAttendanceRequest is a full register for one class day.
type SaveAttendanceRequest struct {
	Date    time.Time         `json:"date" validate:"required"`
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceService records and reads daily registers.
type AttendanceService struct {
	repo        attendanceRepository
	classes     attendanceClassRepository
	students    attendanceStudentRepository
	performance performanceCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, classes attendanceClassRepository, students attendanceStudentRepository, performance performanceCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, classes: classes, students: students, performance: performance, validator: validate, logger: logger}
}

// Register returns the class roster merged with any records already saved for
// the date, so a partially taken register can be resumed. Students without a
// saved record come back with an empty status.
func (s *AttendanceService) Register(ctx context.Context, classID, teacherID string, date time.Time) ([]models.AttendanceRecordWithStudent, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByClassAndDate(ctx, classID, normalizeDate(date))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load register")
	}
	roster, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	saved := make(map[string]models.AttendanceRecordWithStudent, len(records))
	for _, rec := range records {
		saved[rec.StudentID] = rec
	}
	register := make([]models.AttendanceRecordWithStudent, 0, len(roster))
	for _, st := range roster {
		if rec, ok := saved[st.ID]; ok {
			register = append(register, rec)
			continue
		}
		register = append(register, models.AttendanceRecordWithStudent{
			AttendanceRecord: models.AttendanceRecord{StudentID: st.ID, Date: normalizeDate(date)},
			AdmissionNumber:  st.AdmissionNumber,
			StudentName:      st.FullName,
		})
	}
	return register, nil
}

// Save upserts a register submission in one transaction. An absent entry must
// carry a reason; a present entry's reason is discarded. Saving again for the
// same date overwrites, it never duplicates.
func (s *AttendanceService) Save(ctx context.Context, classID, teacherID string, req SaveAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return err
	}

	roster, err := s.students.ListByClass(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	inClass := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		inClass[st.ID] = struct{}{}
	}

	date := normalizeDate(req.Date)
	records := make([]models.AttendanceRecord, 0, len(req.Entries))
	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		if _, ok := inClass[entry.StudentID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not in this class", entry.StudentID))
		}
		if _, dup := seen[entry.StudentID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}

		status := models.AttendanceStatus(entry.Status)
		reason := entry.Reason
		if status == models.AttendanceAbsent {
			if reason == nil || *reason == "" {
				return appErrors.Clone(appErrors.ErrValidation, "an absent student requires a reason")
			}
		} else {
			reason = nil
		}
		records = append(records, models.AttendanceRecord{
			StudentID: entry.StudentID,
			Date:      date,
			Status:    status,
			Reason:    reason,
		})
	}

	if err := s.repo.BulkUpsert(ctx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}
	if s.performance != nil {
		s.performance.Invalidate(ctx, teacherID, classID)
	}
	return nil
}

// History lists per-day present/absent summaries, newest day first.
func (s *AttendanceService) History(ctx context.Context, teacherID string, filter models.AttendanceHistoryFilter) ([]models.AttendanceDaySummary, int, error) {
	if err := s.ensureClassOwned(ctx, filter.ClassID, teacherID); err != nil {
		return nil, 0, err
	}
	summaries, total, err := s.repo.DaySummaries(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return summaries, total, nil
}

func (s *AttendanceService) ensureClassOwned(ctx context.Context, classID, teacherID string) error {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

// normalizeDate truncates to a UTC calendar date so (student, date) upserts
// are stable regardless of the submitted time component.
func normalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
