package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ana María Pérez Soto", FullName(" Ana María ", "Pérez Soto"))
	assert.Equal(t, "Pérez", FullName("", "Pérez"))
	assert.Equal(t, "Ana Pérez", Student{FirstNames: "Ana", LastNames: "Pérez"}.FullName())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Late", AttendanceLate.Label())
	assert.Equal(t, "Legal guardian", RelationshipLegalGuardian.Label())
	assert.Equal(t, "Participation", AssessmentParticipation.Label())
	assert.Equal(t, "unknown", AttendanceStatus("unknown").Label())
	assert.False(t, AssessmentType("quiz").Valid())
}

func TestCountsAsAbsence(t *testing.T) {
	assert.True(t, AttendanceAbsent.CountsAsAbsence())
	assert.True(t, AttendanceLate.CountsAsAbsence())
	assert.False(t, AttendanceExcused.CountsAsAbsence())
	assert.False(t, AttendancePresent.CountsAsAbsence())
}

func TestCourseDetailDecorate(t *testing.T) {
	d := CourseDetail{
		Course:            Course{Section: "B"},
		GradeLevelName:    "1st Secondary",
		SubjectName:       "Mathematics",
		TeacherFirstNames: "Rosa",
		TeacherLastNames:  "Quispe",
	}
	d.Decorate()
	assert.Equal(t, "1st Secondary - Mathematics (B)", d.Label)
	assert.Equal(t, "Rosa Quispe", d.TeacherName)
}

func TestAcademicPeriodContains(t *testing.T) {
	p := AcademicPeriod{
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, p.Contains(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contains(time.Date(2024, 7, 15, 23, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC)))
}
