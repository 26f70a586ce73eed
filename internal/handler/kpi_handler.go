package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-indicators-api/internal/dto"
	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/response"
)

type kpiService interface {
	Summary(ctx context.Context) (kpi.Summary, bool, error)
	AtRisk(ctx context.Context) (dto.AtRiskResponse, bool, error)
	CourseAverages(ctx context.Context) ([]kpi.CourseAverage, bool, error)
	CourseStatistics(ctx context.Context) ([]kpi.CourseAverage, bool, error)
	CourseAverage(ctx context.Context, courseID string) (kpi.CourseAverage, bool, error)
	CourseAbsenteeismList(ctx context.Context) ([]kpi.CourseAbsenteeism, bool, error)
	CourseAbsenteeism(ctx context.Context, courseID string) (kpi.CourseAbsenteeism, bool, error)
	GradeDistribution(ctx context.Context) (kpi.Distribution, bool, error)
	PassRate(ctx context.Context) (dto.PassRateResponse, bool, error)
	ScoreTrend(ctx context.Context, since *time.Time) ([]kpi.MonthlyPoint, bool, error)
	AbsenteeismTrend(ctx context.Context, since *time.Time) ([]kpi.MonthlyPoint, bool, error)
	TopStudents(ctx context.Context, n int, minScores *int) ([]kpi.StudentRanking, bool, error)
	StudentAverages(ctx context.Context) ([]kpi.StudentRanking, bool, error)
	TeacherRanking(ctx context.Context, n int) ([]kpi.TeacherRanking, bool, error)
	AttendanceOn(ctx context.Context, date *time.Time) (dto.AttendanceDayResponse, bool, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, bool, error)
}

type exportService interface {
	AtRisk(ctx context.Context, format string) (*service.ExportResult, error)
}

// KPIHandler serves the computed school indicators.
type KPIHandler struct {
	service kpiService
	exports exportService
}

// NewKPIHandler constructs a KPIHandler.
func NewKPIHandler(service kpiService, exports exportService) *KPIHandler {
	return &KPIHandler{service: service, exports: exports}
}

func serve[T any](c *gin.Context, compute func(ctx context.Context) (T, bool, error)) {
	start := time.Now()
	data, hit, err := compute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	indicator(c, data, hit, start)
}

// Summary godoc
// @Summary Headline counts and general average
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/summary [get]
func (h *KPIHandler) Summary(c *gin.Context) {
	serve(c, h.service.Summary)
}

// AtRisk godoc
// @Summary Students at academic risk
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/at-risk [get]
func (h *KPIHandler) AtRisk(c *gin.Context) {
	serve(c, h.service.AtRisk)
}

// ExportAtRisk godoc
// @Summary Download the at-risk report
// @Tags KPI
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /kpi/at-risk/export [get]
func (h *KPIHandler) ExportAtRisk(c *gin.Context) {
	result, err := h.exports.AtRisk(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

// CourseAverages godoc
// @Summary Average score per course with assessments
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/course-averages [get]
func (h *KPIHandler) CourseAverages(c *gin.Context) {
	serve(c, h.service.CourseAverages)
}

// CourseStatistics godoc
// @Summary Courses with averages and assessment counts
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/with-statistics [get]
func (h *KPIHandler) CourseStatistics(c *gin.Context) {
	serve(c, h.service.CourseStatistics)
}

// CourseAverage godoc
// @Summary Average score of one course
// @Tags KPI
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /kpi/courses/{id}/average [get]
func (h *KPIHandler) CourseAverage(c *gin.Context) {
	id := c.Param("id")
	serve(c, func(ctx context.Context) (kpi.CourseAverage, bool, error) {
		return h.service.CourseAverage(ctx, id)
	})
}

// CourseAbsenteeismList godoc
// @Summary Absenteeism per course
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/course-absenteeism [get]
func (h *KPIHandler) CourseAbsenteeismList(c *gin.Context) {
	serve(c, h.service.CourseAbsenteeismList)
}

// CourseAbsenteeism godoc
// @Summary Absenteeism of one course
// @Tags KPI
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /kpi/courses/{id}/absenteeism [get]
func (h *KPIHandler) CourseAbsenteeism(c *gin.Context) {
	id := c.Param("id")
	serve(c, func(ctx context.Context) (kpi.CourseAbsenteeism, bool, error) {
		return h.service.CourseAbsenteeism(ctx, id)
	})
}

// GradeDistribution godoc
// @Summary Score counts per grade bucket
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/grade-distribution [get]
func (h *KPIHandler) GradeDistribution(c *gin.Context) {
	serve(c, h.service.GradeDistribution)
}

// PassRate godoc
// @Summary Share of passing scores
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/pass-rate [get]
func (h *KPIHandler) PassRate(c *gin.Context) {
	serve(c, h.service.PassRate)
}

// ScoreTrend godoc
// @Summary Monthly average score
// @Tags KPI
// @Produce json
// @Param since query string false "First day included (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /kpi/trends/scores [get]
func (h *KPIHandler) ScoreTrend(c *gin.Context) {
	since, err := queryDate(c, "since")
	if err != nil {
		response.Error(c, err)
		return
	}
	serve(c, func(ctx context.Context) ([]kpi.MonthlyPoint, bool, error) {
		return h.service.ScoreTrend(ctx, since)
	})
}

// AbsenteeismTrend godoc
// @Summary Monthly absenteeism
// @Tags KPI
// @Produce json
// @Param since query string false "First day included (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /kpi/trends/absenteeism [get]
func (h *KPIHandler) AbsenteeismTrend(c *gin.Context) {
	since, err := queryDate(c, "since")
	if err != nil {
		response.Error(c, err)
		return
	}
	serve(c, func(ctx context.Context) ([]kpi.MonthlyPoint, bool, error) {
		return h.service.AbsenteeismTrend(ctx, since)
	})
}

// TopStudents godoc
// @Summary Best averages among students with enough scores
// @Tags KPI
// @Produce json
// @Param limit query int false "Number of students"
// @Param minScores query int false "Minimum number of scores, 0 for any"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /kpi/top-students [get]
func (h *KPIHandler) TopStudents(c *gin.Context) {
	minScores, err := queryCount(c, "minScores")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit := queryInt(c, "limit")
	serve(c, func(ctx context.Context) ([]kpi.StudentRanking, bool, error) {
		return h.service.TopStudents(ctx, limit, minScores)
	})
}

// StudentAverages godoc
// @Summary Students with their average and score count
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/with-averages [get]
func (h *KPIHandler) StudentAverages(c *gin.Context) {
	serve(c, h.service.StudentAverages)
}

// TeacherRanking godoc
// @Summary Teachers ranked by the average of their courses
// @Tags KPI
// @Produce json
// @Param limit query int false "Number of teachers"
// @Success 200 {object} response.Envelope
// @Router /kpi/teacher-ranking [get]
func (h *KPIHandler) TeacherRanking(c *gin.Context) {
	limit := queryInt(c, "limit")
	serve(c, func(ctx context.Context) ([]kpi.TeacherRanking, bool, error) {
		return h.service.TeacherRanking(ctx, limit)
	})
}

// AttendanceToday godoc
// @Summary Attendance status counts for a day
// @Tags KPI
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /kpi/attendance/today [get]
func (h *KPIHandler) AttendanceToday(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	serve(c, func(ctx context.Context) (dto.AttendanceDayResponse, bool, error) {
		return h.service.AttendanceOn(ctx, date)
	})
}

// Dashboard godoc
// @Summary Every indicator in one payload
// @Tags KPI
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kpi/dashboard [get]
func (h *KPIHandler) Dashboard(c *gin.Context) {
	serve(c, h.service.Dashboard)
}
