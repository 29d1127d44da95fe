package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type studentRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Student, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	BulkCreate(ctx context.Context, students []models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

// StudentRequest carries the fields for creating or updating a student.
type StudentRequest struct {
	AdmissionNumber string `json:"admission_number" validate:"required,max=50"`
	FullName        string `json:"full_name" validate:"required,max=255"`
	Gender          string `json:"gender" validate:"required,oneof=male female"`
}

// ImportStudentsRequest is a bulk roster import.
type ImportStudentsRequest struct {
	Students []StudentRequest `json:"students" validate:"required,min=1,dive"`
}

// StudentService manages class rosters.
type StudentService struct {
	repo        studentRepository
	classes     studentClassRepository
	performance performanceCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, classes studentClassRepository, performance performanceCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, classes: classes, performance: performance, validator: validate, logger: logger}
}

// List returns the class roster after an ownership check.
func (s *StudentService) List(ctx context.Context, classID, teacherID string) ([]models.Student, error) {
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	students, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Create adds one student to a class.
func (s *StudentService) Create(ctx context.Context, classID, teacherID string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}
	student := models.Student{
		ClassID:         classID,
		AdmissionNumber: strings.TrimSpace(req.AdmissionNumber),
		FullName:        strings.TrimSpace(req.FullName),
		Gender:          models.Gender(req.Gender),
	}
	if err := s.repo.Create(ctx, &student); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already exists in this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.invalidateSummary(ctx, teacherID, classID)
	return &student, nil
}

// Import bulk-creates roster rows in one transaction. Admission numbers must
// be unique within the payload and within the class.
func (s *StudentService) Import(ctx context.Context, classID, teacherID string, req ImportStudentsRequest) ([]models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	if err := s.ensureClassOwned(ctx, classID, teacherID); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Students))
	students := make([]models.Student, 0, len(req.Students))
	for _, row := range req.Students {
		adm := strings.TrimSpace(row.AdmissionNumber)
		if _, dup := seen[adm]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate admission number %s in import", adm))
		}
		seen[adm] = struct{}{}
		students = append(students, models.Student{
			ClassID:         classID,
			AdmissionNumber: adm,
			FullName:        strings.TrimSpace(row.FullName),
			Gender:          models.Gender(row.Gender),
		})
	}

	if err := s.repo.BulkCreate(ctx, students); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an admission number in the import already exists in this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import students")
	}
	s.logger.Info("students imported", zap.String("classId", classID), zap.Int("count", len(students)))
	s.invalidateSummary(ctx, teacherID, classID)
	return students, nil
}

// Update modifies a student's details.
func (s *StudentService) Update(ctx context.Context, id, teacherID string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.findOwned(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	student.AdmissionNumber = strings.TrimSpace(req.AdmissionNumber)
	student.FullName = strings.TrimSpace(req.FullName)
	student.Gender = models.Gender(req.Gender)
	if err := s.repo.Update(ctx, student); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "admission number already exists in this class")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidateSummary(ctx, teacherID, student.ClassID)
	return student, nil
}

// Delete removes a student along with their attendance and marks.
func (s *StudentService) Delete(ctx context.Context, id, teacherID string) error {
	student, err := s.findOwned(ctx, id, teacherID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.invalidateSummary(ctx, teacherID, student.ClassID)
	return nil
}

// invalidateSummary drops the cached performance summary after a roster write.
// Deleting a student cascades their marks and attendance, so the summary
// changes even when no register or mark was touched directly.
func (s *StudentService) invalidateSummary(ctx context.Context, teacherID, classID string) {
	if s.performance != nil {
		s.performance.Invalidate(ctx, teacherID, classID)
	}
}

func (s *StudentService) findOwned(ctx context.Context, id, teacherID string) (*models.Student, error) {
	student, err := s.repo.FindOwned(ctx, id, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) ensureClassOwned(ctx context.Context, classID, teacherID string) error {
	if _, err := s.classes.FindOwned(ctx, classID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return nil
}
