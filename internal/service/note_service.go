package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type noteRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.TeacherNote, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.TeacherNote, error)
	Create(ctx context.Context, note *models.TeacherNote) error
	Update(ctx context.Context, note *models.TeacherNote) error
	Delete(ctx context.Context, id string) error
}

type noteClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

// NoteRequest carries the fields for creating or updating a note.
type NoteRequest struct {
	Title   string     `json:"title" validate:"required,max=255"`
	Content string     `json:"content" validate:"required"`
	DueDate *time.Time `json:"due_date"`
	Status  string     `json:"status" validate:"omitempty,oneof=active completed"`
}

// NoteService manages class reminders.
type NoteService struct {
	repo      noteRepository
	classes   noteClassRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoteService constructs the service.
func NewNoteService(repo noteRepository, classes noteClassRepository, validate *validator.Validate, logger *zap.Logger) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns a class's notes after an ownership check.
func (s *NoteService) List(ctx context.Context, classID, teacherID string) ([]models.TeacherNote, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	notes, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, nil
}

// Create adds a note to a class, defaulting the status to active.
func (s *NoteService) Create(ctx context.Context, classID, teacherID string, req NoteRequest) (*models.TeacherNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	note := models.TeacherNote{
		ClassID: classID,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		DueDate: req.DueDate,
		Status:  models.NoteActive,
	}
	if req.Status == string(models.NoteCompleted) {
		now := time.Now().UTC()
		note.Status = models.NoteCompleted
		note.CompletedAt = &now
	}
	if err := s.repo.Create(ctx, &note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return &note, nil
}

// Update rewrites a note. Moving to completed stamps CompletedAt once;
// reopening clears it.
func (s *NoteService) Update(ctx context.Context, id, teacherID string, req NoteRequest) (*models.TeacherNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	note, err := s.findOwned(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	note.Title = strings.TrimSpace(req.Title)
	note.Content = req.Content
	note.DueDate = req.DueDate
	if req.Status != "" {
		status := models.NoteStatus(req.Status)
		if status == models.NoteCompleted && note.Status != models.NoteCompleted {
			now := time.Now().UTC()
			note.CompletedAt = &now
		}
		if status == models.NoteActive {
			note.CompletedAt = nil
		}
		note.Status = status
	}
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update note")
	}
	return note, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, id, teacherID string) error {
	if _, err := s.findOwned(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	return nil
}

func (s *NoteService) findOwned(ctx context.Context, id, teacherID string) (*models.TeacherNote, error) {
	note, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

func (s *NoteService) ensureClassOwned(ctx context.Context, classID, teacherID string) error {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}
