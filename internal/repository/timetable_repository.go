package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// TimetableRepository handles lesson slots and their append-only history.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const lessonColumns = `l.id, l.class_id, l.subject_id, l.day_of_week, l.start_time, l.end_time,
        l.attended, l.reason, l.compensated, l.compensation_note, l.compensation_date,
        l.compensation_for_lesson_id, l.created_at, l.updated_at`

// ListByClass returns a class timetable ordered by day and start time.
func (r *TimetableRepository) ListByClass(ctx context.Context, classID string) ([]models.TimetableLessonWithSubject, error) {
	query := fmt.Sprintf(`SELECT %s, sub.name AS subject_name, c.name AS class_name, c.stream AS class_stream
        FROM timetable_lessons l
        JOIN classes c ON c.id = l.class_id
        LEFT JOIN subjects sub ON sub.id = l.subject_id
        WHERE l.class_id = $1
        ORDER BY array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY'], l.day_of_week), l.start_time`, lessonColumns)
	var lessons []models.TimetableLessonWithSubject
	if err := r.db.SelectContext(ctx, &lessons, query, classID); err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	return lessons, nil
}

// ListByTeacherAndDay returns every lesson on the teacher's schedule for one
// day across all their classes. This is the collision-scan source.
func (r *TimetableRepository) ListByTeacherAndDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.TimetableLessonWithSubject, error) {
	query := fmt.Sprintf(`SELECT %s, sub.name AS subject_name, c.name AS class_name, c.stream AS class_stream
        FROM timetable_lessons l
        JOIN classes c ON c.id = l.class_id
        LEFT JOIN subjects sub ON sub.id = l.subject_id
        WHERE c.teacher_id = $1 AND l.day_of_week = $2
        ORDER BY l.start_time`, lessonColumns)
	var lessons []models.TimetableLessonWithSubject
	if err := r.db.SelectContext(ctx, &lessons, query, teacherID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list teacher day lessons: %w", err)
	}
	return lessons, nil
}

// FindOwned returns the lesson only when its class belongs to the teacher.
func (r *TimetableRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.TimetableLesson, error) {
	var lesson models.TimetableLesson
	query := fmt.Sprintf(`SELECT %s
        FROM timetable_lessons l
        JOIN classes c ON c.id = l.class_id
        WHERE l.id = $1 AND c.teacher_id = $2`, lessonColumns)
	if err := r.db.GetContext(ctx, &lesson, query, id, teacherID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create inserts a lesson slot.
func (r *TimetableRepository) Create(ctx context.Context, lesson *models.TimetableLesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	const query = `INSERT INTO timetable_lessons (id, class_id, subject_id, day_of_week, start_time, end_time,
        attended, reason, compensated, compensation_note, compensation_date, compensation_for_lesson_id, created_at, updated_at)
        VALUES (:id, :class_id, :subject_id, :day_of_week, :start_time, :end_time,
        :attended, :reason, :compensated, :compensation_note, :compensation_date, :compensation_for_lesson_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update rewrites the schedulable lesson fields.
func (r *TimetableRepository) Update(ctx context.Context, lesson *models.TimetableLesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_lessons SET subject_id = :subject_id, day_of_week = :day_of_week,
        start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// SetAttendance updates the lesson's attended state and, when entry is
// non-nil, appends the history snapshot in the same transaction.
func (r *TimetableRepository) SetAttendance(ctx context.Context, lesson *models.TimetableLesson, entry *models.TimetableHistoryEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	lesson.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE timetable_lessons SET attended = :attended, reason = :reason, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, lesson); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update lesson attendance: %w", err)
	}
	if entry != nil {
		if err := insertHistory(ctx, tx, entry); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit lesson attendance: %w", err)
	}
	return nil
}

// CreateCompensation inserts the make-up lesson and flags the original as
// compensated in one transaction.
func (r *TimetableRepository) CreateCompensation(ctx context.Context, original, compensation *models.TimetableLesson) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if compensation.ID == "" {
		compensation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	compensation.CreatedAt = now
	compensation.UpdatedAt = now
	const insertQuery = `INSERT INTO timetable_lessons (id, class_id, subject_id, day_of_week, start_time, end_time,
        attended, reason, compensated, compensation_note, compensation_date, compensation_for_lesson_id, created_at, updated_at)
        VALUES (:id, :class_id, :subject_id, :day_of_week, :start_time, :end_time,
        :attended, :reason, :compensated, :compensation_note, :compensation_date, :compensation_for_lesson_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, compensation); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create compensation lesson: %w", err)
	}
	original.UpdatedAt = now
	const flagQuery = `UPDATE timetable_lessons SET compensated = TRUE, compensation_note = :compensation_note,
        compensation_date = :compensation_date, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, flagQuery, original); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("flag compensated lesson: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit compensation: %w", err)
	}
	return nil
}

// Delete removes a lesson; its history entries cascade.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timetable_lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// ListHistoryByClass returns the class's history log, newest first.
func (r *TimetableRepository) ListHistoryByClass(ctx context.Context, classID string) ([]models.TimetableHistoryEntry, error) {
	const query = `SELECT h.id, h.lesson_id, h.day_of_week, h.start_time, h.end_time, h.subject_name,
        h.status, h.reason, h.recorded_at
        FROM timetable_history h
        JOIN timetable_lessons l ON l.id = h.lesson_id
        WHERE l.class_id = $1
        ORDER BY h.recorded_at DESC`
	var entries []models.TimetableHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID); err != nil {
		return nil, fmt.Errorf("list timetable history: %w", err)
	}
	return entries, nil
}

// LatestHistoryInRange returns, per lesson of the class, the most recent
// history entry recorded inside [from, to). Lessons without an entry in the
// window are absent from the map.
func (r *TimetableRepository) LatestHistoryInRange(ctx context.Context, classID string, from, to time.Time) (map[string]models.TimetableHistoryEntry, error) {
	const query = `SELECT DISTINCT ON (h.lesson_id)
        h.id, h.lesson_id, h.day_of_week, h.start_time, h.end_time, h.subject_name, h.status, h.reason, h.recorded_at
        FROM timetable_history h
        JOIN timetable_lessons l ON l.id = h.lesson_id
        WHERE l.class_id = $1 AND h.recorded_at >= $2 AND h.recorded_at < $3
        ORDER BY h.lesson_id, h.recorded_at DESC`
	var entries []models.TimetableHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, classID, from, to); err != nil {
		return nil, fmt.Errorf("latest history in range: %w", err)
	}
	result := make(map[string]models.TimetableHistoryEntry, len(entries))
	for _, entry := range entries {
		result[entry.LessonID] = entry
	}
	return result, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, entry *models.TimetableHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	const query = `INSERT INTO timetable_history (id, lesson_id, day_of_week, start_time, end_time, subject_name, status, reason, recorded_at)
        VALUES (:id, :lesson_id, :day_of_week, :start_time, :end_time, :subject_name, :status, :reason, :recorded_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append timetable history: %w", err)
	}
	return nil
}
