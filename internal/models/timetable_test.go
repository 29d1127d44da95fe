package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLessonOverlaps(t *testing.T) {
	base := TimetableLesson{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"}

	cases := []struct {
		name  string
		other TimetableLesson
		want  bool
	}{
		{"identical", TimetableLesson{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00"}, true},
		{"contained", TimetableLesson{DayOfWeek: "MONDAY", StartTime: "09:15", EndTime: "09:45"}, true},
		{"partial tail", TimetableLesson{DayOfWeek: "MONDAY", StartTime: "09:30", EndTime: "10:30"}, true},
		{"partial head", TimetableLesson{DayOfWeek: "MONDAY", StartTime: "08:30", EndTime: "09:30"}, true},
		{"touching end", TimetableLesson{DayOfWeek: "MONDAY", StartTime: "10:00", EndTime: "11:00"}, false},
		{"touching start", TimetableLesson{DayOfWeek: "MONDAY", StartTime: "08:00", EndTime: "09:00"}, false},
		{"other day", TimetableLesson{DayOfWeek: "TUESDAY", StartTime: "09:00", EndTime: "10:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, base.Overlaps(tc.other))
		})
	}
}

func TestValidDayOfWeek(t *testing.T) {
	assert.True(t, ValidDayOfWeek("MONDAY"))
	assert.True(t, ValidDayOfWeek("SATURDAY"))
	assert.False(t, ValidDayOfWeek("SUNDAY"))
	assert.False(t, ValidDayOfWeek("monday"))
}
