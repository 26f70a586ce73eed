// Package kpi computes academic indicators from score and attendance facts.
//
// Every function is pure: callers load the facts they need from storage and
// the functions derive the indicator without side effects. Empty inputs never
// fail; averages and percentages over nothing are 0.
package kpi

import (
	"math"
	"time"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

// Thresholds on the 0-100 scale.
const (
	PassingScore = 51.0

	// A student is at risk when the average is below RiskAverage or
	// absenteeism exceeds RiskAbsenteeism.
	RiskAverage     = 60.0
	RiskAbsenteeism = 20.0

	// An at-risk student is high risk when the average is below
	// HighRiskAverage or absenteeism exceeds HighRiskAbsenteeism.
	HighRiskAverage     = 50.0
	HighRiskAbsenteeism = 30.0

	ExcellentFloor = 90.0
	GoodFloor      = 70.0
	RegularFloor   = 51.0
)

// ScoreFact is a recorded score with the course and teacher it belongs to.
type ScoreFact struct {
	StudentID    string    `db:"student_id"`
	CourseID     string    `db:"course_id"`
	TeacherID    string    `db:"teacher_id"`
	AssessmentID string    `db:"assessment_id"`
	Value        float64   `db:"value"`
	RecordedAt   time.Time `db:"recorded_at"`
}

// AttendanceFact is one attendance record.
type AttendanceFact struct {
	StudentID string                  `db:"student_id"`
	CourseID  string                  `db:"course_id"`
	Date      time.Time               `db:"date"`
	Status    models.AttendanceStatus `db:"status"`
}

// StudentRef identifies a student in indicator output.
type StudentRef struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	LegalID string `db:"legal_id"`
}

// CourseRef identifies a course in indicator output.
type CourseRef struct {
	ID              string `db:"id"`
	GradeLevel      string `db:"grade_level"`
	Subject         string `db:"subject"`
	Section         string `db:"section"`
	TeacherName     string `db:"teacher_name"`
	AssessmentCount int    `db:"assessment_count"`
	EnrollmentCount int    `db:"enrollment_count"`
}

// TeacherRef identifies a teacher in indicator output. StudentCount is the
// number of distinct students enrolled in the teacher's courses.
type TeacherRef struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	StudentCount int    `db:"student_count"`
}

// Round rounds half away from zero to the given number of decimals.
func Round(value float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(value*p) / p
}

// Percentage returns part/total*100, or 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func mean(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	a.sum += v
	a.count++
}

func (a accumulator) mean() float64 {
	return mean(a.sum, a.count)
}
