package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// GradeScaleRepository handles the per-teacher grade scale singleton.
type GradeScaleRepository struct {
	db *sqlx.DB
}

// NewGradeScaleRepository constructs the repository.
func NewGradeScaleRepository(db *sqlx.DB) *GradeScaleRepository {
	return &GradeScaleRepository{db: db}
}

// FindByTeacher returns the teacher's stored grade scale.
func (r *GradeScaleRepository) FindByTeacher(ctx context.Context, teacherID string) (*models.GradeScale, error) {
	var scale models.GradeScale
	const query = `SELECT teacher_id, min_a, min_a_minus, min_b_plus, min_b, min_b_minus,
        min_c_plus, min_c, min_c_minus, min_d_plus, min_d, min_d_minus, average_multiplier, updated_at
        FROM grade_scales WHERE teacher_id = $1`
	if err := r.db.GetContext(ctx, &scale, query, teacherID); err != nil {
		return nil, err
	}
	return &scale, nil
}

// Upsert stores the scale, replacing any previous row for the teacher.
func (r *GradeScaleRepository) Upsert(ctx context.Context, scale *models.GradeScale) error {
	scale.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO grade_scales (teacher_id, min_a, min_a_minus, min_b_plus, min_b, min_b_minus,
        min_c_plus, min_c, min_c_minus, min_d_plus, min_d, min_d_minus, average_multiplier, updated_at)
        VALUES (:teacher_id, :min_a, :min_a_minus, :min_b_plus, :min_b, :min_b_minus,
        :min_c_plus, :min_c, :min_c_minus, :min_d_plus, :min_d, :min_d_minus, :average_multiplier, :updated_at)
        ON CONFLICT (teacher_id)
        DO UPDATE SET min_a = EXCLUDED.min_a, min_a_minus = EXCLUDED.min_a_minus,
        min_b_plus = EXCLUDED.min_b_plus, min_b = EXCLUDED.min_b, min_b_minus = EXCLUDED.min_b_minus,
        min_c_plus = EXCLUDED.min_c_plus, min_c = EXCLUDED.min_c, min_c_minus = EXCLUDED.min_c_minus,
        min_d_plus = EXCLUDED.min_d_plus, min_d = EXCLUDED.min_d, min_d_minus = EXCLUDED.min_d_minus,
        average_multiplier = EXCLUDED.average_multiplier, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, scale); err != nil {
		return fmt.Errorf("upsert grade scale: %w", err)
	}
	return nil
}
