package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// StudentRepository handles student roster persistence.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByClass returns the roster ordered by admission number.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT id, class_id, admission_number, full_name, gender, created_at, updated_at
        FROM students WHERE class_id = $1 ORDER BY admission_number`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindOwned returns the student only when their class belongs to the teacher.
func (r *StudentRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.Student, error) {
	var student models.Student
	const query = `SELECT s.id, s.class_id, s.admission_number, s.full_name, s.gender, s.created_at, s.updated_at
        FROM students s JOIN classes c ON c.id = s.class_id
        WHERE s.id = $1 AND c.teacher_id = $2`
	if err := r.db.GetContext(ctx, &student, query, id, teacherID); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a single student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, class_id, admission_number, full_name, gender, created_at, updated_at)
        VALUES (:id, :class_id, :admission_number, :full_name, :gender, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// BulkCreate inserts imported roster rows in a single transaction.
func (r *StudentRepository) BulkCreate(ctx context.Context, students []models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	const query = `INSERT INTO students (id, class_id, admission_number, full_name, gender, created_at, updated_at)
        VALUES (:id, :class_id, :admission_number, :full_name, :gender, :created_at, :updated_at)`
	for i := range students {
		if students[i].ID == "" {
			students[i].ID = uuid.NewString()
		}
		students[i].CreatedAt = now
		students[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, students[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk create student: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit students: %w", err)
	}
	return nil
}

// Update modifies the mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET admission_number = :admission_number, full_name = :full_name,
        gender = :gender, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student; attendance and marks cascade.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
