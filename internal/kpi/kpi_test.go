package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

func scores(studentID, courseID string, values ...float64) []ScoreFact {
	out := make([]ScoreFact, 0, len(values))
	for _, v := range values {
		out = append(out, ScoreFact{StudentID: studentID, CourseID: courseID, Value: v})
	}
	return out
}

func attendance(studentID, courseID string, statuses ...models.AttendanceStatus) []AttendanceFact {
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	out := make([]AttendanceFact, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, AttendanceFact{StudentID: studentID, CourseID: courseID, Date: day.AddDate(0, 0, i), Status: s})
	}
	return out
}

func repeatStatus(status models.AttendanceStatus, n int) []models.AttendanceStatus {
	out := make([]models.AttendanceStatus, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func TestRound(t *testing.T) {
	assert.Equal(t, 66.7, Round(200.0/3, 1))
	assert.Equal(t, 33.33, Round(100.0/3, 2))
}

func TestGeneralAverage(t *testing.T) {
	assert.Equal(t, 0.0, GeneralAverage(nil))
	assert.Equal(t, 60.0, GeneralAverage(scores("s", "c", 40, 60, 80)))
	assert.Equal(t, 66.67, GeneralAverage(scores("s", "c", 50, 50, 100)))
}

func TestPassRate(t *testing.T) {
	assert.Equal(t, 66.7, PassRate(scores("s", "c", 50, 51, 100)))
	assert.Equal(t, 0.0, PassRate(nil))
	assert.Equal(t, 100.0, PassRate(scores("s", "c", 51)))
}

func TestGradeDistribution(t *testing.T) {
	d := GradeDistribution(scores("s", "c", 100, 90, 89.99, 70, 69.5, 51, 50.99, 0))
	assert.Equal(t, Distribution{Excellent: 2, Good: 2, Regular: 2, Insufficient: 2, Total: 8}, d)
	assert.Equal(t, d.Total, d.Excellent+d.Good+d.Regular+d.Insufficient)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name        string
		average     float64
		absenteeism float64
		level       RiskLevel
		atRisk      bool
	}{
		{"healthy", 60, 20, "", false},
		{"medium by average", 55, 0, RiskMedium, true},
		{"medium by absenteeism", 80, 25, RiskMedium, true},
		{"high by average", 45, 0, RiskHigh, true},
		{"high by absenteeism", 90, 30.01, RiskHigh, true},
		{"boundary average", 50, 30, RiskMedium, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, atRisk := ClassifyRisk(tt.average, tt.absenteeism)
			assert.Equal(t, tt.atRisk, atRisk)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestStudentRisk(t *testing.T) {
	student := StudentRef{ID: "s1", Name: "Ana Pérez", LegalID: "12345678"}

	_, atRisk := StudentRisk(student, scores("s1", "c", 40, 60, 80), nil)
	assert.False(t, atRisk, "average of exactly 60 is not at risk")

	statuses := append(repeatStatus(models.AttendanceAbsent, 2), models.AttendanceLate, models.AttendanceExcused)
	statuses = append(statuses, repeatStatus(models.AttendancePresent, 8)...)
	risk, atRisk := StudentRisk(student, scores("s1", "c", 55), attendance("s1", "c", statuses...))
	require.True(t, atRisk)
	assert.Equal(t, RiskMedium, risk.Level)
	assert.Equal(t, 25.0, risk.Absenteeism)
	assert.Equal(t, 55.0, risk.Average)
	assert.Equal(t, 1, risk.ScoreCount)
	assert.Equal(t, "12345678", risk.LegalID)

	risk, atRisk = StudentRisk(student, scores("s1", "c", 45), nil)
	require.True(t, atRisk)
	assert.Equal(t, RiskHigh, risk.Level)

	_, atRisk = StudentRisk(student, nil, attendance("s1", "c", repeatStatus(models.AttendanceAbsent, 5)...))
	assert.False(t, atRisk, "students without scores are not evaluated")
}

func TestAtRiskStudentsKeepsInputOrder(t *testing.T) {
	students := []StudentRef{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}, {ID: "c", Name: "C"}, {ID: "d", Name: "D"}}
	facts := append(scores("a", "c1", 30), scores("b", "c1", 58)...)
	facts = append(facts, scores("c", "c1", 95)...)

	out := AtRiskStudents(students, facts, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].StudentID)
	assert.Equal(t, RiskMedium, out[0].Level)
	assert.Equal(t, "a", out[1].StudentID)
	assert.Equal(t, RiskHigh, out[1].Level)
}

func TestCourseAverages(t *testing.T) {
	courses := []CourseRef{
		{ID: "c1", GradeLevel: "1st", Subject: "Math", Section: "A", AssessmentCount: 2, EnrollmentCount: 3},
		{ID: "c2", GradeLevel: "1st", Subject: "Art", Section: "A", AssessmentCount: 0},
		{ID: "c3", GradeLevel: "2nd", Subject: "History", Section: "B", AssessmentCount: 1},
	}
	facts := append(scores("s1", "c1", 70, 80), scores("s2", "c1", 91)...)

	out := CourseAverages(courses, facts)
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].CourseID)
	assert.Equal(t, 80.33, out[0].Average)
	assert.Equal(t, 3, out[0].ScoreCount)
	assert.Equal(t, "1st - Math (A)", out[0].Label)
	assert.Equal(t, "c3", out[1].CourseID)
	assert.Equal(t, 0.0, out[1].Average)

	assert.Equal(t, 0.0, CourseAverageOf("c2", facts))
	assert.Equal(t, 80.33, CourseAverageOf("c1", facts))

	stats := CourseStatistics(courses, facts)
	require.Len(t, stats, 3)
	assert.Equal(t, "c2", stats[1].CourseID)
	assert.Equal(t, 0, stats[1].AssessmentCount)
	assert.Equal(t, 2, stats[0].AssessmentCount)
	assert.Equal(t, 3, stats[0].EnrollmentCount)
}

func TestCourseAbsenteeism(t *testing.T) {
	courses := []CourseRef{{ID: "c1", GradeLevel: "1st", Subject: "Math", Section: "A"}, {ID: "c2"}}
	records := attendance("s1", "c1", models.AttendanceAbsent, models.AttendanceLate, models.AttendancePresent)

	out := CourseAbsenteeismList(courses, records)
	require.Len(t, out, 2)
	assert.Equal(t, 3, out[0].TotalRecords)
	assert.Equal(t, 2, out[0].Absences)
	assert.Equal(t, 66.67, out[0].Percentage)
	assert.Equal(t, 0, out[1].TotalRecords)
	assert.Equal(t, 0.0, out[1].Percentage)
}

func TestMonthlyScoreTrend(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	facts := []ScoreFact{
		{Value: 80, RecordedAt: time.Date(2024, 3, 30, 10, 0, 0, 0, time.UTC)},
		{Value: 60, RecordedAt: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
		{Value: 50, RecordedAt: time.Date(2024, 2, 10, 10, 0, 0, 0, time.UTC)},
		{Value: 10, RecordedAt: time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC)},
	}
	out := MonthlyScoreTrend(facts, since)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-02", out[0].Month)
	assert.Equal(t, 50.0, out[0].Value)
	assert.Equal(t, "2024-03", out[1].Month)
	assert.Equal(t, 70.0, out[1].Value)
	assert.Equal(t, 2, out[1].Count)
	assert.Equal(t, "March 2024", out[1].Label)
}

func TestMonthlyAbsenteeismCountsAbsentOnly(t *testing.T) {
	records := attendance("s1", "c1", models.AttendanceAbsent, models.AttendanceLate, models.AttendancePresent)
	out := MonthlyAbsenteeism(records, time.Time{})
	require.Len(t, out, 1)
	assert.Equal(t, "2024-04", out[0].Month)
	assert.Equal(t, 33.3, out[0].Value)
	assert.Equal(t, 3, out[0].Count)
}

func TestTopStudents(t *testing.T) {
	students := []StudentRef{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	facts := append(scores("a", "c1", 80, 80, 80), scores("b", "c1", 90, 90, 90)...)
	facts = append(facts, scores("c", "c1", 80, 80, 80)...)
	facts = append(facts, scores("d", "c1", 100, 100)...)

	out := TopStudents(students, facts, 2, 3)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].StudentID)
	assert.Equal(t, "a", out[1].StudentID, "ties keep input order")

	all := TopStudents(students, facts, 0, 3)
	assert.Len(t, all, 3)
}

func TestLowestStudents(t *testing.T) {
	students := []StudentRef{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	facts := append(scores("a", "c1", 40), scores("b", "c1", 20)...)
	facts = append(facts, scores("c", "c1", 51)...)

	out := LowestStudents(students, facts, 5)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].StudentID)
	assert.Equal(t, "a", out[1].StudentID)
}

func TestTeacherRankings(t *testing.T) {
	teachers := []TeacherRef{{ID: "t1", Name: "Rosa", StudentCount: 2}, {ID: "t2", Name: "Juan"}, {ID: "t3", Name: "Eva"}}
	facts := []ScoreFact{
		{TeacherID: "t1", Value: 70},
		{TeacherID: "t1", Value: 90},
		{TeacherID: "t3", Value: 95},
	}
	out := TeacherRankings(teachers, facts, 5)
	require.Len(t, out, 2)
	assert.Equal(t, "t3", out[0].TeacherID)
	assert.Equal(t, "t1", out[1].TeacherID)
	assert.Equal(t, 80.0, out[1].Average)
	assert.Equal(t, 2, out[1].StudentCount)
}

func TestAttendanceOn(t *testing.T) {
	records := attendance("s1", "c1", models.AttendanceAbsent, models.AttendancePresent)
	records = append(records, AttendanceFact{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Status: models.AttendanceLate})

	out := AttendanceOn(records, time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC))
	require.Len(t, out, len(models.AttendanceStatuses))
	counts := map[models.AttendanceStatus]int{}
	for _, c := range out {
		counts[c.Status] = c.Count
	}
	assert.Equal(t, 1, counts[models.AttendanceAbsent])
	assert.Equal(t, 1, counts[models.AttendanceLate])
	assert.Equal(t, 0, counts[models.AttendancePresent])
}
