package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// MarkRepository handles exam mark persistence.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListForSheet returns the marks for one (class, subject, exam type, term)
// sheet joined with roster metadata.
func (r *MarkRepository) ListForSheet(ctx context.Context, classID, subjectID, examTypeID string, term int) ([]models.MarkWithStudent, error) {
	const query = `SELECT m.id, m.student_id, m.subject_id, m.exam_type_id, m.term, m.score, m.out_of,
        m.created_at, m.updated_at, s.admission_number, s.full_name AS student_name
        FROM marks m
        JOIN students s ON s.id = m.student_id
        WHERE s.class_id = $1 AND m.subject_id = $2 AND m.exam_type_id = $3 AND m.term = $4
        ORDER BY s.admission_number`
	var marks []models.MarkWithStudent
	if err := r.db.SelectContext(ctx, &marks, query, classID, subjectID, examTypeID, term); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// ListByClass returns every mark row for a class with roster metadata,
// ordered for export sheets.
func (r *MarkRepository) ListByClass(ctx context.Context, classID string) ([]models.MarkWithStudent, error) {
	const query = `SELECT m.id, m.student_id, m.subject_id, m.exam_type_id, m.term, m.score, m.out_of,
        m.created_at, m.updated_at, s.admission_number, s.full_name AS student_name
        FROM marks m
        JOIN students s ON s.id = m.student_id
        WHERE s.class_id = $1
        ORDER BY s.admission_number, m.term, m.subject_id`
	var marks []models.MarkWithStudent
	if err := r.db.SelectContext(ctx, &marks, query, classID); err != nil {
		return nil, fmt.Errorf("list class marks: %w", err)
	}
	return marks, nil
}

// BulkUpsert writes one marks sheet atomically. Each row is an upsert on
// (student_id, subject_id, exam_type_id, term); any failure rolls back all.
func (r *MarkRepository) BulkUpsert(ctx context.Context, marks []models.Mark) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const query = `INSERT INTO marks (id, student_id, subject_id, exam_type_id, term, score, out_of, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :exam_type_id, :term, :score, :out_of, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id, exam_type_id, term)
        DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`
	for i := range marks {
		if marks[i].ID == "" {
			marks[i].ID = uuid.NewString()
		}
		if marks[i].OutOf == 0 {
			marks[i].OutOf = models.MarkOutOf
		}
		if marks[i].CreatedAt.IsZero() {
			marks[i].CreatedAt = now
		}
		marks[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, marks[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert mark: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit marks: %w", err)
	}
	return nil
}

// StudentScores returns every (student, score) pair for a class. The flat
// shape feeds the per-student average computation.
func (r *MarkRepository) StudentScores(ctx context.Context, classID string) ([]models.StudentMarkRow, error) {
	const query = `SELECT m.student_id, m.score
        FROM marks m
        JOIN students s ON s.id = m.student_id
        WHERE s.class_id = $1`
	var rows []models.StudentMarkRow
	if err := r.db.SelectContext(ctx, &rows, query, classID); err != nil {
		return nil, fmt.Errorf("student scores: %w", err)
	}
	return rows, nil
}
