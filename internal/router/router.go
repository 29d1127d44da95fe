package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/mwalimu-app/mwalimu-api/internal/handler"
	"github.com/mwalimu-app/mwalimu-api/internal/middleware"
	"github.com/mwalimu-app/mwalimu-api/internal/service"
	"github.com/mwalimu-app/mwalimu-api/pkg/config"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Teacher       *handler.TeacherHandler
	Class         *handler.ClassHandler
	Student       *handler.StudentHandler
	Subject       *handler.SubjectHandler
	ExamType      *handler.ExamTypeHandler
	Attendance    *handler.AttendanceHandler
	Mark          *handler.MarkHandler
	GradeSettings *handler.GradeSettingsHandler
	Performance   *handler.PerformanceHandler
	Timetable     *handler.TimetableHandler
	Note          *handler.NoteHandler
	Export        *handler.ExportHandler
	Metrics       *handler.MetricsHandler
}

// Register mounts every route on the engine. Auth, health, readiness, metrics
// and docs are public; everything else sits behind the JWT middleware.
func Register(r *gin.Engine, cfg *config.Config, authService *service.AuthService, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.POST("/auth/logout", h.Auth.Logout)
		protected.POST("/auth/change-password", h.Auth.ChangePassword)

		protected.GET("/me", h.Teacher.Me)
		protected.PUT("/me", h.Teacher.UpdateMe)

		protected.GET("/classes", h.Class.List)
		protected.POST("/classes", h.Class.Create)
		protected.GET("/classes/:classId", h.Class.Get)
		protected.DELETE("/classes/:classId", h.Class.Delete)

		protected.GET("/classes/:classId/students", h.Student.List)
		protected.POST("/classes/:classId/students", h.Student.Create)
		protected.POST("/classes/:classId/students/import", h.Student.Import)
		protected.PUT("/students/:id", h.Student.Update)
		protected.DELETE("/students/:id", h.Student.Delete)

		protected.GET("/classes/:classId/subjects", h.Subject.List)
		protected.POST("/classes/:classId/subjects", h.Subject.Create)
		protected.DELETE("/subjects/:id", h.Subject.Delete)

		protected.GET("/exam-types", h.ExamType.List)
		protected.POST("/exam-types", h.ExamType.Create)
		protected.DELETE("/exam-types/:id", h.ExamType.Delete)

		protected.GET("/classes/:classId/attendance", h.Attendance.Register)
		protected.POST("/classes/:classId/attendance", h.Attendance.Save)
		protected.GET("/classes/:classId/attendance/history", h.Attendance.History)

		protected.GET("/classes/:classId/marks", h.Mark.Sheet)
		protected.POST("/classes/:classId/marks", h.Mark.Save)

		protected.GET("/grade-settings", h.GradeSettings.Get)
		protected.PUT("/grade-settings", h.GradeSettings.Update)

		protected.GET("/classes/:classId/performance-summary", h.Performance.Summary)

		protected.GET("/classes/:classId/timetable", h.Timetable.List)
		protected.GET("/classes/:classId/timetable/week", h.Timetable.Week)
		protected.GET("/classes/:classId/timetable/history", h.Timetable.History)
		protected.POST("/classes/:classId/timetable", h.Timetable.Create)
		protected.PUT("/timetable/:id", h.Timetable.Update)
		protected.DELETE("/timetable/:id", h.Timetable.Delete)
		protected.PATCH("/timetable/:id/attendance", h.Timetable.MarkAttendance)
		protected.PATCH("/timetable/:id/compensate", h.Timetable.Compensate)

		protected.GET("/classes/:classId/notes", h.Note.List)
		protected.POST("/classes/:classId/notes", h.Note.Create)
		protected.PUT("/notes/:id", h.Note.Update)
		protected.DELETE("/notes/:id", h.Note.Delete)

		protected.GET("/classes/:classId/marks/export", h.Export.MarksCSV)
		protected.GET("/classes/:classId/performance-report", h.Export.PerformancePDF)
	}
}
