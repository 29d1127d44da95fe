package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// ClassRepository handles class persistence. Every lookup is scoped to the
// owning teacher so cross-tenant IDs behave like missing rows.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListByTeacher returns the teacher's classes with roster counts.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassWithCounts, error) {
	const query = `SELECT c.id, c.teacher_id, c.name, c.stream, c.year, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM students st WHERE st.class_id = c.id) AS student_count,
        (SELECT COUNT(*) FROM subjects su WHERE su.class_id = c.id) AS subject_count
        FROM classes c WHERE c.teacher_id = $1
        ORDER BY c.name, c.stream NULLS FIRST`
	var classes []models.ClassWithCounts
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindOwned returns the class only when it belongs to the teacher.
func (r *ClassRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error) {
	var class models.Class
	const query = `SELECT id, teacher_id, name, stream, year, created_at, updated_at
        FROM classes WHERE id = $1 AND teacher_id = $2`
	if err := r.db.GetContext(ctx, &class, query, id, teacherID); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, teacher_id, name, stream, year, created_at, updated_at)
        VALUES (:id, :teacher_id, :name, :stream, :year, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Delete removes a class; students, subjects, lessons and notes cascade.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}
