package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
)

// NoteRepository handles class reminder persistence.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs the repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// ListByClass returns a class's notes, active first, then by due date.
func (r *NoteRepository) ListByClass(ctx context.Context, classID string) ([]models.TeacherNote, error) {
	const query = `SELECT id, class_id, title, content, due_date, status, completed_at, created_at, updated_at
        FROM teacher_notes WHERE class_id = $1
        ORDER BY status, due_date NULLS LAST, created_at DESC`
	var notes []models.TeacherNote
	if err := r.db.SelectContext(ctx, &notes, query, classID); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// FindOwned returns the note only when its class belongs to the teacher.
func (r *NoteRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.TeacherNote, error) {
	var note models.TeacherNote
	const query = `SELECT n.id, n.class_id, n.title, n.content, n.due_date, n.status, n.completed_at, n.created_at, n.updated_at
        FROM teacher_notes n JOIN classes c ON c.id = n.class_id
        WHERE n.id = $1 AND c.teacher_id = $2`
	if err := r.db.GetContext(ctx, &note, query, id, teacherID); err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts a note.
func (r *NoteRepository) Create(ctx context.Context, note *models.TeacherNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now
	const query = `INSERT INTO teacher_notes (id, class_id, title, content, due_date, status, completed_at, created_at, updated_at)
        VALUES (:id, :class_id, :title, :content, :due_date, :status, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// Update rewrites the note's content and completion state.
func (r *NoteRepository) Update(ctx context.Context, note *models.TeacherNote) error {
	note.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teacher_notes SET title = :title, content = :content, due_date = :due_date,
        status = :status, completed_at = :completed_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// Delete removes a note.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teacher_notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
