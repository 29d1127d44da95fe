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

type timetableRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.TimetableLessonWithSubject, error)
	ListByTeacherAndDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.TimetableLessonWithSubject, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.TimetableLesson, error)
	Create(ctx context.Context, lesson *models.TimetableLesson) error
	Update(ctx context.Context, lesson *models.TimetableLesson) error
	SetAttendance(ctx context.Context, lesson *models.TimetableLesson, entry *models.TimetableHistoryEntry) error
	CreateCompensation(ctx context.Context, original, compensation *models.TimetableLesson) error
	Delete(ctx context.Context, id string) error
	ListHistoryByClass(ctx context.Context, classID string) ([]models.TimetableHistoryEntry, error)
	LatestHistoryInRange(ctx context.Context, classID string, from, to time.Time) (map[string]models.TimetableHistoryEntry, error)
}

type timetableClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

type timetableSubjectRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Subject, error)
}

// CreateLessonRequest describes payload for scheduling a lesson.
type CreateLessonRequest struct {
	ClassID   string  `json:"class_id" validate:"required"`
	SubjectID *string `json:"subject_id"`
	DayOfWeek string  `json:"day_of_week" validate:"required,timetable_day"`
	StartTime string  `json:"start_time" validate:"required,lesson_time"`
	EndTime   string  `json:"end_time" validate:"required,lesson_time"`
}

// UpdateLessonRequest reschedules an existing lesson.
type UpdateLessonRequest struct {
	SubjectID *string `json:"subject_id"`
	DayOfWeek string  `json:"day_of_week" validate:"required,timetable_day"`
	StartTime string  `json:"start_time" validate:"required,lesson_time"`
	EndTime   string  `json:"end_time" validate:"required,lesson_time"`
}

// MarkLessonRequest sets or clears a lesson's attended state. A nil Attended
// resets the lesson to pending without touching the history log.
type MarkLessonRequest struct {
	Attended *bool   `json:"attended"`
	Reason   *string `json:"reason"`
}

// CompensateLessonRequest schedules a make-up slot for a missed lesson.
type CompensateLessonRequest struct {
	DayOfWeek string     `json:"day_of_week" validate:"required,timetable_day"`
	StartTime string     `json:"start_time" validate:"required,lesson_time"`
	EndTime   string     `json:"end_time" validate:"required,lesson_time"`
	Note      *string    `json:"note"`
	Date      *time.Time `json:"date"`
}

// TimetableService coordinates lesson scheduling, attendance marking and
// compensation slots.
type TimetableService struct {
	repo      timetableRepository
	classes   timetableClassRepository
	subjects  timetableSubjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs the service.
func NewTimetableService(repo timetableRepository, classes timetableClassRepository, subjects timetableSubjectRepository, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &TimetableService{repo: repo, classes: classes, subjects: subjects, validator: validate, logger: logger}
	svc.validator.RegisterValidation("timetable_day", func(fl validator.FieldLevel) bool {
		return models.ValidDayOfWeek(fl.Field().String())
	})
	svc.validator.RegisterValidation("lesson_time", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
	return svc
}

// ListByClass returns the class timetable after an ownership check.
func (s *TimetableService) ListByClass(ctx context.Context, classID, teacherID string) ([]models.TimetableLessonWithSubject, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	return lessons, nil
}

// Create schedules a lesson after running the teacher-wide collision scan.
func (s *TimetableService) Create(ctx context.Context, teacherID string, req CreateLessonRequest) (*models.TimetableLesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	if err := s.ensureClassOwned(ctx, req.ClassID, teacherID); err != nil {
		return nil, err
	}
	if err := s.ensureSubjectInClass(ctx, req.SubjectID, req.ClassID, teacherID); err != nil {
		return nil, err
	}

	lesson := models.TimetableLesson{
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.ensureNoCollision(ctx, teacherID, lesson, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	return &lesson, nil
}

// Update reschedules a lesson, excluding itself from the collision scan.
func (s *TimetableService) Update(ctx context.Context, teacherID, id string, req UpdateLessonRequest) (*models.TimetableLesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}

	lesson, err := s.findOwnedLesson(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSubjectInClass(ctx, req.SubjectID, lesson.ClassID, teacherID); err != nil {
		return nil, err
	}

	lesson.SubjectID = req.SubjectID
	lesson.DayOfWeek = req.DayOfWeek
	lesson.StartTime = req.StartTime
	lesson.EndTime = req.EndTime

	if err := s.ensureNoCollision(ctx, teacherID, *lesson, lesson.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, nil
}

// Delete removes a lesson and its history.
func (s *TimetableService) Delete(ctx context.Context, teacherID, id string) error {
	if _, err := s.findOwnedLesson(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

// SetAttendance updates a lesson's attended state. Every set to a concrete
// status appends one immutable history snapshot, re-marks included; clearing
// the status back to pending does not.
func (s *TimetableService) SetAttendance(ctx context.Context, teacherID, id string, req MarkLessonRequest) (*models.TimetableLesson, error) {
	lesson, err := s.findOwnedLesson(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}

	lesson.Attended = req.Attended
	if req.Attended == nil || *req.Attended {
		lesson.Reason = nil
	} else {
		lesson.Reason = req.Reason
	}

	var entry *models.TimetableHistoryEntry
	if req.Attended != nil {
		status := models.LessonMissed
		if *req.Attended {
			status = models.LessonAttended
		}
		entry = &models.TimetableHistoryEntry{
			LessonID:    lesson.ID,
			DayOfWeek:   lesson.DayOfWeek,
			StartTime:   lesson.StartTime,
			EndTime:     lesson.EndTime,
			SubjectName: s.subjectName(ctx, lesson.SubjectID, teacherID),
			Status:      status,
			Reason:      lesson.Reason,
			RecordedAt:  time.Now().UTC(),
		}
	}

	if err := s.repo.SetAttendance(ctx, lesson, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark lesson")
	}
	return lesson, nil
}

// Compensate creates a make-up lesson for a slot marked not attended. The new
// lesson passes the same collision scan as any other and the original is
// flagged compensated in the same transaction.
func (s *TimetableService) Compensate(ctx context.Context, teacherID, id string, req CompensateLessonRequest) (*models.TimetableLesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid compensation payload")
	}
	if req.StartTime >= req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}

	original, err := s.findOwnedLesson(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if original.Attended == nil || *original.Attended {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "only a lesson marked not attended can be compensated")
	}

	compensation := models.TimetableLesson{
		ClassID:                 original.ClassID,
		SubjectID:               original.SubjectID,
		DayOfWeek:               req.DayOfWeek,
		StartTime:               req.StartTime,
		EndTime:                 req.EndTime,
		CompensationForLessonID: &original.ID,
	}
	if err := s.ensureNoCollision(ctx, teacherID, compensation, ""); err != nil {
		return nil, err
	}

	original.CompensationNote = req.Note
	original.CompensationDate = req.Date
	if err := s.repo.CreateCompensation(ctx, original, &compensation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create compensation lesson")
	}
	return &compensation, nil
}

// History returns a class's append-only attendance log, newest first.
func (s *TimetableService) History(ctx context.Context, classID, teacherID string) ([]models.TimetableHistoryEntry, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistoryByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	return entries, nil
}

// WeeklyView derives each lesson's completion for the ISO week containing
// date: the latest history entry recorded inside the week wins; a lesson
// without one is pending regardless of its all-time attended value.
func (s *TimetableService) WeeklyView(ctx context.Context, classID, teacherID string, date time.Time) ([]models.WeeklyLessonState, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}

	from, to := isoWeekBounds(date)
	latest, err := s.repo.LatestHistoryInRange(ctx, classID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load week history")
	}

	states := make([]models.WeeklyLessonState, 0, len(lessons))
	for _, lesson := range lessons {
		state := models.WeeklyLessonState{Lesson: lesson}
		if entry, ok := latest[lesson.ID]; ok {
			status := entry.Status
			state.Status = &status
			state.Reason = entry.Reason
		}
		states = append(states, state)
	}
	return states, nil
}

func (s *TimetableService) ensureClassOwned(ctx context.Context, classID, teacherID string) error {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}

func (s *TimetableService) ensureSubjectInClass(ctx context.Context, subjectID *string, classID, teacherID string) error {
	if subjectID == nil || *subjectID == "" {
		return nil
	}
	subject, err := s.subjects.FindOwned(ctx, *subjectID, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.ClassID != classID {
		return appErrors.Clone(appErrors.ErrValidation, "subject belongs to a different class")
	}
	return nil
}

func (s *TimetableService) findOwnedLesson(ctx context.Context, id, teacherID string) (*models.TimetableLesson, error) {
	lesson, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// ensureNoCollision scans every lesson on the teacher's schedule for the
// day, across all their classes, so one teacher cannot be booked into two
// rooms at once. The lesson being edited is excluded by id.
func (s *TimetableService) ensureNoCollision(ctx context.Context, teacherID string, lesson models.TimetableLesson, ignoreID string) error {
	existing, err := s.repo.ListByTeacherAndDay(ctx, teacherID, lesson.DayOfWeek)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan for collisions")
	}
	for _, item := range existing {
		if item.ID == ignoreID {
			continue
		}
		if lesson.Overlaps(item.TimetableLesson) {
			className := item.ClassName
			if item.ClassStream != nil && *item.ClassStream != "" {
				className = className + " " + *item.ClassStream
			}
			domainErr := &models.LessonConflictError{
				Message: fmt.Sprintf("overlaps a %s lesson on %s %s-%s", className, item.DayOfWeek, item.StartTime, item.EndTime),
				Conflict: models.LessonConflict{
					LessonID:  item.ID,
					ClassID:   item.ClassID,
					ClassName: className,
					Subject:   item.SubjectName,
					DayOfWeek: item.DayOfWeek,
					StartTime: item.StartTime,
					EndTime:   item.EndTime,
				},
			}
			return appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, domainErr.Message)
		}
	}
	return nil
}

func (s *TimetableService) subjectName(ctx context.Context, subjectID *string, teacherID string) *string {
	if subjectID == nil || *subjectID == "" {
		return nil
	}
	subject, err := s.subjects.FindOwned(ctx, *subjectID, teacherID)
	if err != nil {
		return nil
	}
	return &subject.Name
}

// isoWeekBounds returns the UTC Monday midnight of date's ISO week and the
// Monday of the following week.
func isoWeekBounds(date time.Time) (time.Time, time.Time) {
	date = date.UTC()
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(weekday - 1))
	return monday, monday.AddDate(0, 0, 7)
}
