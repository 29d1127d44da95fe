package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// ExamTypeRepository handles per-teacher assessment categories.
type ExamTypeRepository struct {
	db *sqlx.DB
}

// NewExamTypeRepository constructs the repository.
func NewExamTypeRepository(db *sqlx.DB) *ExamTypeRepository {
	return &ExamTypeRepository{db: db}
}

// ListByTeacher returns the teacher's exam types in creation order.
func (r *ExamTypeRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ExamType, error) {
	const query = `SELECT id, teacher_id, name, created_at FROM exam_types WHERE teacher_id = $1 ORDER BY created_at`
	var types []models.ExamType
	if err := r.db.SelectContext(ctx, &types, query, teacherID); err != nil {
		return nil, fmt.Errorf("list exam types: %w", err)
	}
	return types, nil
}

// SeedDefaults inserts the default exam types, skipping names already present.
func (r *ExamTypeRepository) SeedDefaults(ctx context.Context, teacherID string) error {
	const query = `INSERT INTO exam_types (id, teacher_id, name, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (teacher_id, name) DO NOTHING`
	now := time.Now().UTC()
	for i, name := range models.DefaultExamTypeNames {
		// Stagger timestamps so the seeded order survives the creation sort.
		if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), teacherID, name, now.Add(time.Duration(i)*time.Millisecond)); err != nil {
			return fmt.Errorf("seed exam type %q: %w", name, err)
		}
	}
	return nil
}

// FindOwned returns the exam type only when it belongs to the teacher.
func (r *ExamTypeRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.ExamType, error) {
	var examType models.ExamType
	const query = `SELECT id, teacher_id, name, created_at FROM exam_types WHERE id = $1 AND teacher_id = $2`
	if err := r.db.GetContext(ctx, &examType, query, id, teacherID); err != nil {
		return nil, err
	}
	return &examType, nil
}

// Create inserts a new exam type.
func (r *ExamTypeRepository) Create(ctx context.Context, examType *models.ExamType) error {
	if examType.ID == "" {
		examType.ID = uuid.NewString()
	}
	examType.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO exam_types (id, teacher_id, name, created_at)
        VALUES (:id, :teacher_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, examType); err != nil {
		return fmt.Errorf("create exam type: %w", err)
	}
	return nil
}

// CountMarks reports how many marks reference the exam type.
func (r *ExamTypeRepository) CountMarks(ctx context.Context, examTypeID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM marks WHERE exam_type_id = $1`, examTypeID); err != nil {
		return 0, fmt.Errorf("count marks for exam type: %w", err)
	}
	return count, nil
}

// Delete removes an exam type. Callers must first check CountMarks.
func (r *ExamTypeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exam_types WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam type: %w", err)
	}
	return nil
}
