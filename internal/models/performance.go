package models

// StudentAverage is one student's adjusted average and grade.
type StudentAverage struct {
	StudentID       string  `json:"student_id"`
	AdmissionNumber string  `json:"admission_number"`
	StudentName     string  `json:"student_name"`
	Average         float64 `json:"average"`
	Grade           string  `json:"grade"`
}

// WeeklyAttendancePoint is one ISO week's attendance rate for the trend.
type WeeklyAttendancePoint struct {
	Year int     `json:"year"`
	Week int     `json:"week"`
	Rate float64 `json:"rate"`
}

// PerformanceSummary aggregates a class for the dashboard: mean of adjusted
// student averages, grade distribution across all twelve labels, overall
// attendance rate and the recent weekly trend.
type PerformanceSummary struct {
	ClassID           string                  `json:"class_id"`
	ClassAverage      float64                 `json:"class_average"`
	ClassGrade        string                  `json:"class_grade"`
	GradeDistribution map[string]int          `json:"grade_distribution"`
	AttendanceRate    float64                 `json:"attendance_rate"`
	AttendanceTrend   []WeeklyAttendancePoint `json:"attendance_trend"`
	StudentAverages   []StudentAverage        `json:"student_averages"`
}
