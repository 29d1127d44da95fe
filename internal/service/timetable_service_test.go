package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
)

type mockTimetableRepo struct {
	lessons       []models.TimetableLessonWithSubject
	byID          map[string]*models.TimetableLesson
	history       []models.TimetableHistoryEntry
	latestInRange map[string]models.TimetableHistoryEntry

	created       *models.TimetableLesson
	updated       *models.TimetableLesson
	compensation  *models.TimetableLesson
	deletedID     string
	historyWrites []models.TimetableHistoryEntry
}

func (m *mockTimetableRepo) ListByClass(ctx context.Context, classID string) ([]models.TimetableLessonWithSubject, error) {
	var out []models.TimetableLessonWithSubject
	for _, l := range m.lessons {
		if l.ClassID == classID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) ListByTeacherAndDay(ctx context.Context, teacherID, dayOfWeek string) ([]models.TimetableLessonWithSubject, error) {
	var out []models.TimetableLessonWithSubject
	for _, l := range m.lessons {
		if l.DayOfWeek == dayOfWeek {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockTimetableRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.TimetableLesson, error) {
	if lesson, ok := m.byID[id]; ok {
		copied := *lesson
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTimetableRepo) Create(ctx context.Context, lesson *models.TimetableLesson) error {
	lesson.ID = "lesson-new"
	m.created = lesson
	return nil
}

func (m *mockTimetableRepo) Update(ctx context.Context, lesson *models.TimetableLesson) error {
	m.updated = lesson
	return nil
}

func (m *mockTimetableRepo) SetAttendance(ctx context.Context, lesson *models.TimetableLesson, entry *models.TimetableHistoryEntry) error {
	m.byID[lesson.ID] = lesson
	if entry != nil {
		m.historyWrites = append(m.historyWrites, *entry)
	}
	return nil
}

func (m *mockTimetableRepo) CreateCompensation(ctx context.Context, original, compensation *models.TimetableLesson) error {
	compensation.ID = "lesson-comp"
	original.Compensated = true
	m.compensation = compensation
	return nil
}

func (m *mockTimetableRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return nil
}

func (m *mockTimetableRepo) ListHistoryByClass(ctx context.Context, classID string) ([]models.TimetableHistoryEntry, error) {
	return m.history, nil
}

func (m *mockTimetableRepo) LatestHistoryInRange(ctx context.Context, classID string, from, to time.Time) (map[string]models.TimetableHistoryEntry, error) {
	return m.latestInRange, nil
}

type mockLessonClassRepo struct{}

func (m *mockLessonClassRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error) {
	if teacherID != "teacher-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Class{ID: id, TeacherID: teacherID, Name: "Form 2"}, nil
}

type mockLessonSubjectRepo struct {
	subjects map[string]*models.Subject
}

func (m *mockLessonSubjectRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func lessonFixture() (*TimetableService, *mockTimetableRepo) {
	stream := "East"
	repo := &mockTimetableRepo{
		byID: map[string]*models.TimetableLesson{},
		lessons: []models.TimetableLessonWithSubject{
			{
				TimetableLesson: models.TimetableLesson{
					ID: "lesson-1", ClassID: "class-2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00",
				},
				ClassName:   "Form 3",
				ClassStream: &stream,
			},
		},
	}
	svc := NewTimetableService(repo, &mockLessonClassRepo{}, &mockLessonSubjectRepo{
		subjects: map[string]*models.Subject{
			"subject-1": {ID: "subject-1", ClassID: "class-1", Name: "Mathematics"},
		},
	}, nil, nil)
	return svc, repo
}

func TestTimetableCreateRejectsCollisionAcrossClasses(t *testing.T) {
	svc, repo := lessonFixture()

	_, err := svc.Create(context.Background(), "teacher-1", CreateLessonRequest{
		ClassID:   "class-1",
		DayOfWeek: "MONDAY",
		StartTime: "09:30",
		EndTime:   "10:30",
	})
	require.Error(t, err)
	assert.Nil(t, repo.created)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Form 3 East")

	var conflictErr *models.LessonConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, "lesson-1", conflictErr.Conflict.LessonID)
}

func TestTimetableCreateAllowsTouchingBoundaries(t *testing.T) {
	svc, repo := lessonFixture()

	lesson, err := svc.Create(context.Background(), "teacher-1", CreateLessonRequest{
		ClassID:   "class-1",
		DayOfWeek: "MONDAY",
		StartTime: "10:00",
		EndTime:   "11:00",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "MONDAY", lesson.DayOfWeek)
}

func TestTimetableCreateRejectsInvertedTimes(t *testing.T) {
	svc, _ := lessonFixture()

	_, err := svc.Create(context.Background(), "teacher-1", CreateLessonRequest{
		ClassID:   "class-1",
		DayOfWeek: "MONDAY",
		StartTime: "11:00",
		EndTime:   "10:00",
	})
	require.Error(t, err)
}

func TestTimetableUpdateExcludesSelfFromScan(t *testing.T) {
	svc, repo := lessonFixture()
	repo.byID["lesson-1"] = &models.TimetableLesson{
		ID: "lesson-1", ClassID: "class-2", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00",
	}

	// keeping the same slot must not collide with itself
	updated, err := svc.Update(context.Background(), "teacher-1", "lesson-1", UpdateLessonRequest{
		DayOfWeek: "MONDAY",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", updated.ID)
}

func TestTimetableSetAttendanceAppendsHistoryEachTime(t *testing.T) {
	svc, repo := lessonFixture()
	repo.byID["lesson-1"] = &models.TimetableLesson{
		ID: "lesson-1", ClassID: "class-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00",
	}

	attended := true
	_, err := svc.SetAttendance(context.Background(), "teacher-1", "lesson-1", MarkLessonRequest{Attended: &attended})
	require.NoError(t, err)

	missed := false
	reason := "school event"
	lesson, err := svc.SetAttendance(context.Background(), "teacher-1", "lesson-1", MarkLessonRequest{Attended: &missed, Reason: &reason})
	require.NoError(t, err)

	require.Len(t, repo.historyWrites, 2, "every concrete set appends an entry")
	assert.Equal(t, models.LessonAttended, repo.historyWrites[0].Status)
	assert.Equal(t, models.LessonMissed, repo.historyWrites[1].Status)
	require.NotNil(t, repo.historyWrites[1].Reason)
	assert.Equal(t, "school event", *repo.historyWrites[1].Reason)
	require.NotNil(t, lesson.Attended)
	assert.False(t, *lesson.Attended)
}

func TestTimetableClearAttendanceWritesNoHistory(t *testing.T) {
	svc, repo := lessonFixture()
	attended := false
	reason := "sick"
	repo.byID["lesson-1"] = &models.TimetableLesson{
		ID: "lesson-1", ClassID: "class-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00",
		Attended: &attended, Reason: &reason,
	}

	lesson, err := svc.SetAttendance(context.Background(), "teacher-1", "lesson-1", MarkLessonRequest{Attended: nil})
	require.NoError(t, err)

	assert.Empty(t, repo.historyWrites)
	assert.Nil(t, lesson.Attended)
	assert.Nil(t, lesson.Reason)
}

func TestTimetableCompensateRequiresMissedLesson(t *testing.T) {
	svc, repo := lessonFixture()
	attended := true
	repo.byID["lesson-1"] = &models.TimetableLesson{
		ID: "lesson-1", ClassID: "class-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00",
		Attended: &attended,
	}

	_, err := svc.Compensate(context.Background(), "teacher-1", "lesson-1", CompensateLessonRequest{
		DayOfWeek: "WEDNESDAY",
		StartTime: "14:00",
		EndTime:   "15:00",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
	assert.Nil(t, repo.compensation)
}

func TestTimetableCompensateCreatesLinkedLesson(t *testing.T) {
	svc, repo := lessonFixture()
	missed := false
	repo.byID["lesson-1"] = &models.TimetableLesson{
		ID: "lesson-1", ClassID: "class-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00",
		Attended: &missed,
	}

	comp, err := svc.Compensate(context.Background(), "teacher-1", "lesson-1", CompensateLessonRequest{
		DayOfWeek: "WEDNESDAY",
		StartTime: "14:00",
		EndTime:   "15:00",
	})
	require.NoError(t, err)
	require.NotNil(t, repo.compensation)
	require.NotNil(t, comp.CompensationForLessonID)
	assert.Equal(t, "lesson-1", *comp.CompensationForLessonID)
	assert.Equal(t, "class-1", comp.ClassID)
}

func TestTimetableCompensationSlotMustBeFree(t *testing.T) {
	svc, repo := lessonFixture()
	missed := false
	repo.byID["lesson-2"] = &models.TimetableLesson{
		ID: "lesson-2", ClassID: "class-1", DayOfWeek: "TUESDAY", StartTime: "09:00", EndTime: "10:00",
		Attended: &missed,
	}

	// existing Monday 09:00-10:00 lesson in another class blocks the slot
	_, err := svc.Compensate(context.Background(), "teacher-1", "lesson-2", CompensateLessonRequest{
		DayOfWeek: "MONDAY",
		StartTime: "09:30",
		EndTime:   "10:30",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)
}

func TestTimetableWeeklyViewPendingWithoutHistory(t *testing.T) {
	svc, repo := lessonFixture()
	attended := true
	repo.lessons = []models.TimetableLessonWithSubject{
		{TimetableLesson: models.TimetableLesson{ID: "lesson-1", ClassID: "class-1", DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00", Attended: &attended}},
		{TimetableLesson: models.TimetableLesson{ID: "lesson-2", ClassID: "class-1", DayOfWeek: "TUESDAY", StartTime: "09:00", EndTime: "10:00"}},
	}
	repo.latestInRange = map[string]models.TimetableHistoryEntry{
		"lesson-2": {LessonID: "lesson-2", Status: models.LessonMissed},
	}

	states, err := svc.WeeklyView(context.Background(), "class-1", "teacher-1", day("2026-03-04"))
	require.NoError(t, err)
	require.Len(t, states, 2)

	// all-time attended flag does not leak into a week with no entry
	assert.Nil(t, states[0].Status)
	require.NotNil(t, states[1].Status)
	assert.Equal(t, models.LessonMissed, *states[1].Status)
}

func TestIsoWeekBounds(t *testing.T) {
	from, to := isoWeekBounds(day("2026-03-04")) // a Wednesday
	assert.Equal(t, "2026-03-02", from.Format("2006-01-02"))
	assert.Equal(t, "2026-03-09", to.Format("2006-01-02"))

	from, _ = isoWeekBounds(day("2026-03-08")) // Sunday belongs to the same ISO week
	assert.Equal(t, "2026-03-02", from.Format("2006-01-02"))
}
