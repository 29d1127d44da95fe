package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/mwalimu-app/mwalimu-api/api/swagger"
	"github.com/mwalimu-app/mwalimu-api/internal/handler"
	"github.com/mwalimu-app/mwalimu-api/internal/middleware"
	"github.com/mwalimu-app/mwalimu-api/internal/repository"
	"github.com/mwalimu-app/mwalimu-api/internal/router"
	"github.com/mwalimu-app/mwalimu-api/internal/service"
	"github.com/mwalimu-app/mwalimu-api/pkg/cache"
	"github.com/mwalimu-app/mwalimu-api/pkg/config"
	"github.com/mwalimu-app/mwalimu-api/pkg/database"
	"github.com/mwalimu-app/mwalimu-api/pkg/logger"
	corsmiddleware "github.com/mwalimu-app/mwalimu-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mwalimu-app/mwalimu-api/pkg/middleware/requestid"
)

// @title Mwalimu API
// @version 1.0.0
// @description Class management API for secondary school teachers
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, performance cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Performance.CacheTTL, logr, cfg.Performance.CacheEnabled)
	}

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	examTypeRepo := repository.NewExamTypeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	markRepo := repository.NewMarkRepository(db)
	gradeScaleRepo := repository.NewGradeScaleRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	authService := service.NewAuthService(teacherRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	teacherService := service.NewTeacherService(teacherRepo, validate, logr)
	classService := service.NewClassService(classRepo, validate, logr)
	subjectService := service.NewSubjectService(subjectRepo, classRepo, validate, logr)
	examTypeService := service.NewExamTypeService(examTypeRepo, validate, logr)
	gradeScaleService := service.NewGradeScaleService(gradeScaleRepo, cacheService, validate, logr)
	performanceService := service.NewPerformanceService(classRepo, studentRepo, markRepo, attendanceRepo, gradeScaleService, cacheService, metricsService, logr)
	studentService := service.NewStudentService(studentRepo, classRepo, performanceService, validate, logr)
	attendanceService := service.NewAttendanceService(attendanceRepo, classRepo, studentRepo, performanceService, validate, logr)
	markService := service.NewMarkService(markRepo, classRepo, studentRepo, subjectRepo, examTypeRepo, performanceService, validate, logr)
	timetableService := service.NewTimetableService(timetableRepo, classRepo, subjectRepo, validate, logr)
	noteService := service.NewNoteService(noteRepo, classRepo, validate, logr)
	exportService := service.NewExportService(classRepo, markRepo, subjectRepo, examTypeRepo, performanceService, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	router.Register(r, cfg, authService, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Teacher:       handler.NewTeacherHandler(teacherService),
		Class:         handler.NewClassHandler(classService),
		Student:       handler.NewStudentHandler(studentService),
		Subject:       handler.NewSubjectHandler(subjectService),
		ExamType:      handler.NewExamTypeHandler(examTypeService),
		Attendance:    handler.NewAttendanceHandler(attendanceService),
		Mark:          handler.NewMarkHandler(markService),
		GradeSettings: handler.NewGradeSettingsHandler(gradeScaleService),
		Performance:   handler.NewPerformanceHandler(performanceService),
		Timetable:     handler.NewTimetableHandler(timetableService),
		Note:          handler.NewNoteHandler(noteService),
		Export:        handler.NewExportHandler(exportService),
		Metrics:       handler.NewMetricsHandler(metricsService, db),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
