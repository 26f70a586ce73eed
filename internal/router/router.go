package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/handler"
	"github.com/noah-isme/school-indicators-api/internal/middleware"
	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-indicators-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-indicators-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	GradeLevels     *handler.GradeLevelHandler
	Subjects        *handler.SubjectHandler
	AcademicPeriods *handler.AcademicPeriodHandler
	Teachers        *handler.TeacherHandler
	Students        *handler.StudentHandler
	Guardians       *handler.GuardianHandler
	Courses         *handler.CourseHandler
	Enrollments     *handler.EnrollmentHandler
	GuardianLinks   *handler.GuardianLinkHandler
	Assessments     *handler.AssessmentHandler
	Scores          *handler.ScoreHandler
	Attendance      *handler.AttendanceHandler
	KPI             *handler.KPIHandler
	Metrics         *handler.MetricsHandler
}

// Options controls cross-cutting behaviour of the engine.
type Options struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	// Verifier enables bearer-token checks when set.
	Verifier middleware.TokenVerifier
	Metrics  *service.MetricsService
	Logger   *zap.Logger
}

type crudHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// New builds the gin engine with middleware and every route registered.
func New(h Handlers, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.APIPrefix == "" {
		opts.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.GET("/metrics/summary", h.Metrics.Summary)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	var writeGuard gin.HandlerFunc
	if opts.Verifier != nil {
		api.Use(middleware.JWT(opts.Verifier))
		writeGuard = middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	}
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if writeGuard == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{writeGuard, h}
	}

	api.GET("/students/with-averages", h.KPI.StudentAverages)
	api.GET("/courses/with-statistics", h.KPI.CourseStatistics)

	resources := []struct {
		path    string
		handler crudHandler
	}{
		{"/grade-levels", h.GradeLevels},
		{"/subjects", h.Subjects},
		{"/academic-periods", h.AcademicPeriods},
		{"/teachers", h.Teachers},
		{"/students", h.Students},
		{"/guardians", h.Guardians},
		{"/courses", h.Courses},
		{"/enrollments", h.Enrollments},
		{"/guardian-links", h.GuardianLinks},
		{"/assessments", h.Assessments},
		{"/scores", h.Scores},
		{"/attendance", h.Attendance},
	}
	for _, res := range resources {
		group := api.Group(res.path)
		group.GET("", res.handler.List)
		group.GET("/:id", res.handler.Get)
		group.POST("", write(res.handler.Create)...)
		group.PUT("/:id", write(res.handler.Update)...)
		group.DELETE("/:id", write(res.handler.Delete)...)
	}

	kpi := api.Group("/kpi")
	{
		kpi.GET("/summary", h.KPI.Summary)
		kpi.GET("/at-risk", h.KPI.AtRisk)
		kpi.GET("/at-risk/export", h.KPI.ExportAtRisk)
		kpi.GET("/course-averages", h.KPI.CourseAverages)
		kpi.GET("/courses/:id/average", h.KPI.CourseAverage)
		kpi.GET("/course-absenteeism", h.KPI.CourseAbsenteeismList)
		kpi.GET("/courses/:id/absenteeism", h.KPI.CourseAbsenteeism)
		kpi.GET("/grade-distribution", h.KPI.GradeDistribution)
		kpi.GET("/pass-rate", h.KPI.PassRate)
		kpi.GET("/trends/scores", h.KPI.ScoreTrend)
		kpi.GET("/trends/absenteeism", h.KPI.AbsenteeismTrend)
		kpi.GET("/top-students", h.KPI.TopStudents)
		kpi.GET("/teacher-ranking", h.KPI.TeacherRanking)
		kpi.GET("/attendance/today", h.KPI.AttendanceToday)
		kpi.GET("/dashboard", h.KPI.Dashboard)
	}

	return r
}
