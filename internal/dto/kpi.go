package dto

import (
	"time"

	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/models"
)

// PassRateResponse reports the share of passing scores.
type PassRateResponse struct {
	PassRate     float64 `json:"pass_rate"`
	PassingScore float64 `json:"passing_score"`
	ScoreCount   int     `json:"score_count"`
}

// AttendanceDayResponse counts attendance per status for one date.
type AttendanceDayResponse struct {
	Date     string            `json:"date"`
	Total    int               `json:"total"`
	Statuses []kpi.StatusCount `json:"statuses"`
}

// AtRiskResponse lists students at academic risk.
type AtRiskResponse struct {
	Total    int                  `json:"total"`
	High     int                  `json:"high"`
	Medium   int                  `json:"medium"`
	Students []kpi.RiskAssessment `json:"students"`
}

// NewAtRiskResponse counts risk levels over students.
func NewAtRiskResponse(students []kpi.RiskAssessment) AtRiskResponse {
	resp := AtRiskResponse{Total: len(students), Students: students}
	for _, s := range students {
		if s.Level == kpi.RiskHigh {
			resp.High++
		} else {
			resp.Medium++
		}
	}
	return resp
}

// DashboardResponse composes every indicator into one payload.
type DashboardResponse struct {
	Summary             kpi.Summary               `json:"summary"`
	AtRisk              AtRiskResponse            `json:"at_risk"`
	GradeDistribution   kpi.Distribution          `json:"grade_distribution"`
	AttendanceToday     AttendanceDayResponse     `json:"attendance_today"`
	CourseAverages      []kpi.CourseAverage       `json:"course_averages"`
	CourseAbsenteeism   []kpi.CourseAbsenteeism   `json:"course_absenteeism"`
	ScoreTrend          []kpi.MonthlyPoint        `json:"score_trend"`
	AbsenteeismTrend    []kpi.MonthlyPoint        `json:"absenteeism_trend"`
	TopStudents         []kpi.StudentRanking      `json:"top_students"`
	LowestStudents      []kpi.StudentRanking      `json:"lowest_students"`
	TeacherRanking      []kpi.TeacherRanking      `json:"teacher_ranking"`
	UpcomingAssessments []models.AssessmentDetail `json:"upcoming_assessments"`
	RecentScores        []models.ScoreDetail      `json:"recent_scores"`
	GeneratedAt         time.Time                 `json:"generated_at"`
}
