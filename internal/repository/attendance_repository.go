package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// AttendanceRepository handles daily attendance persistence.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByClassAndDate returns the class register for one date.
func (r *AttendanceRepository) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecordWithStudent, error) {
	const query = `SELECT a.id, a.student_id, a.date, a.status, a.reason, a.created_at, a.updated_at,
        s.admission_number, s.full_name AS student_name
        FROM attendance_records a
        JOIN students s ON s.id = a.student_id
        WHERE s.class_id = $1 AND a.date = $2
        ORDER BY s.admission_number`
	var records []models.AttendanceRecordWithStudent
	if err := r.db.SelectContext(ctx, &records, query, classID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// BulkUpsert writes one register submission atomically. Each row is an
// upsert on (student_id, date); any failure rolls the whole batch back.
func (r *AttendanceRepository) BulkUpsert(ctx context.Context, records []models.AttendanceRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const query = `INSERT INTO attendance_records (id, student_id, date, status, reason, created_at, updated_at)
        VALUES (:id, :student_id, :date, :status, :reason, :created_at, :updated_at)
        ON CONFLICT (student_id, date)
        DO UPDATE SET status = EXCLUDED.status, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at`
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
		if records[i].CreatedAt.IsZero() {
			records[i].CreatedAt = now
		}
		records[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, records[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert attendance record: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance: %w", err)
	}
	return nil
}

// DaySummaries aggregates present/absent counts per date for the history view.
func (r *AttendanceRepository) DaySummaries(ctx context.Context, filter models.AttendanceHistoryFilter) ([]models.AttendanceDaySummary, int, error) {
	where := "s.class_id = $1"
	args := []interface{}{filter.ClassID}
	if filter.DateFrom != nil {
		where += fmt.Sprintf(" AND a.date >= $%d", len(args)+1)
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where += fmt.Sprintf(" AND a.date <= $%d", len(args)+1)
		args = append(args, *filter.DateTo)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 30
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.date,
        COUNT(*) FILTER (WHERE a.status = 'present') AS present,
        COUNT(*) FILTER (WHERE a.status = 'absent') AS absent
        FROM attendance_records a
        JOIN students s ON s.id = a.student_id
        WHERE %s
        GROUP BY a.date
        ORDER BY a.date DESC
        LIMIT %d OFFSET %d`, where, size, offset)

	var summaries []models.AttendanceDaySummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("attendance day summaries: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(DISTINCT a.date)
        FROM attendance_records a JOIN students s ON s.id = a.student_id WHERE %s`, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance days: %w", err)
	}
	return summaries, total, nil
}

// AttendanceStatusRow is a (date, status) pair consumed by the aggregator.
type AttendanceStatusRow struct {
	Date   time.Time               `db:"date"`
	Status models.AttendanceStatus `db:"status"`
}

// StatusRows returns every attendance row for a class; rate and weekly trend
// computation happens in the service.
func (r *AttendanceRepository) StatusRows(ctx context.Context, classID string) ([]AttendanceStatusRow, error) {
	const query = `SELECT a.date, a.status
        FROM attendance_records a
        JOIN students s ON s.id = a.student_id
        WHERE s.class_id = $1
        ORDER BY a.date`
	var rows []AttendanceStatusRow
	if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, fmt.Errorf("attendance status rows: %w", err)
	}
	return rows, nil
}
