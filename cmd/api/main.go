package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-indicators-api/api/swagger"
	"github.com/noah-isme/school-indicators-api/internal/handler"
	"github.com/noah-isme/school-indicators-api/internal/repository"
	"github.com/noah-isme/school-indicators-api/internal/router"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/cache"
	"github.com/noah-isme/school-indicators-api/pkg/config"
	"github.com/noah-isme/school-indicators-api/pkg/database"
	"github.com/noah-isme/school-indicators-api/pkg/logger"
)

// @title School Indicators API
// @version 1.0.0
// @description School administration records and academic KPIs
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
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db.DB, database.MigrateUp); err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	engine := router.New(buildHandlers(cfg, db, metrics, logr), routerOptions(cfg, metrics, logr))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func routerOptions(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) router.Options {
	opts := router.Options{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Metrics:        metrics,
		Logger:         logr,
	}
	if cfg.JWT.Enabled {
		opts.Verifier = service.NewTokenService(service.TokenConfig{
			Secret:   cfg.JWT.Secret,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		})
	}
	return opts
}

// newCache connects the optional KPI cache. Failing to reach Redis leaves the
// cache disabled instead of stopping the server.
func newCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.KPI.CacheEnabled {
		return service.NewCacheService(nil, metrics, cfg.KPI.CacheTTL, logr, false)
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("kpi cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.KPI.CacheTTL, logr, false)
	}
	return service.NewCacheService(repository.NewCacheRepository(client), metrics, cfg.KPI.CacheTTL, logr, true)
}

func newKPIService(cfg *config.Config, db *sqlx.DB, cacheSvc *service.CacheService, metrics *service.MetricsService, logr *zap.Logger) *service.KPIService {
	return service.NewKPIService(service.KPIServiceParams{
		Repo:    repository.NewKPIRepository(db),
		Cache:   cacheSvc,
		Metrics: metrics,
		Logger:  logr.Named("kpi"),
		Config: service.KPIServiceConfig{
			CacheTTL:     cfg.KPI.CacheTTL,
			TrendWindow:  cfg.KPI.TrendWindow,
			TopLimit:     cfg.KPI.TopLimit,
			MinScores:    cfg.KPI.MinScores,
			UpcomingDays: int(cfg.KPI.UpcomingWindow.Hours() / 24),
			RecentLimit:  cfg.KPI.RecentLimit,
		},
	})
}

func buildHandlers(cfg *config.Config, db *sqlx.DB, metrics *service.MetricsService, logr *zap.Logger) router.Handlers {
	validate := service.NewValidator()
	cacheSvc := newCache(cfg, metrics, logr)

	gradeLevelRepo := repository.NewGradeLevelRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	periodRepo := repository.NewAcademicPeriodRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	linkRepo := repository.NewGuardianLinkRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	kpiSvc := newKPIService(cfg, db, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(kpiSvc, logr.Named("export")).WithTitle(cfg.Export.Title)

	return router.Handlers{
		GradeLevels:     handler.NewGradeLevelHandler(service.NewGradeLevelService(gradeLevelRepo, validate, cacheSvc, logr)),
		Subjects:        handler.NewSubjectHandler(service.NewSubjectService(subjectRepo, validate, cacheSvc, logr)),
		AcademicPeriods: handler.NewAcademicPeriodHandler(service.NewAcademicPeriodService(periodRepo, validate, cacheSvc, logr)),
		Teachers:        handler.NewTeacherHandler(service.NewTeacherService(teacherRepo, validate, cacheSvc, logr)),
		Students:        handler.NewStudentHandler(service.NewStudentService(studentRepo, validate, cacheSvc, logr)),
		Guardians:       handler.NewGuardianHandler(service.NewGuardianService(guardianRepo, validate, cacheSvc, logr)),
		Courses: handler.NewCourseHandler(service.NewCourseService(service.CourseServiceParams{
			Courses:     courseRepo,
			GradeLevels: gradeLevelRepo,
			Subjects:    subjectRepo,
			Teachers:    teacherRepo,
			Periods:     periodRepo,
			Validator:   validate,
			Cache:       cacheSvc,
			Logger:      logr,
		})),
		Enrollments:   handler.NewEnrollmentHandler(service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, cacheSvc, logr)),
		GuardianLinks: handler.NewGuardianLinkHandler(service.NewGuardianLinkService(linkRepo, studentRepo, guardianRepo, validate, cacheSvc, logr)),
		Assessments:   handler.NewAssessmentHandler(service.NewAssessmentService(assessmentRepo, courseRepo, validate, cacheSvc, logr)),
		Scores:        handler.NewScoreHandler(service.NewScoreService(scoreRepo, assessmentRepo, studentRepo, enrollmentRepo, validate, cacheSvc, logr)),
		Attendance:    handler.NewAttendanceHandler(service.NewAttendanceService(attendanceRepo, studentRepo, courseRepo, enrollmentRepo, validate, cacheSvc, logr)),
		KPI:           handler.NewKPIHandler(kpiSvc, exportSvc),
		Metrics:       handler.NewMetricsHandler(metrics, db),
	}
}
