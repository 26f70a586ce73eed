package kpi

import (
	"time"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

// Distribution counts scores per performance bucket.
type Distribution struct {
	Excellent    int `json:"excellent"`
	Good         int `json:"good"`
	Regular      int `json:"regular"`
	Insufficient int `json:"insufficient"`
	Total        int `json:"total"`
}

// Bucket names a performance band for a score value.
func Bucket(value float64) string {
	switch {
	case value >= ExcellentFloor:
		return "excellent"
	case value >= GoodFloor:
		return "good"
	case value >= RegularFloor:
		return "regular"
	default:
		return "insufficient"
	}
}

// GeneralAverage is the mean of every score rounded to 2 decimals.
func GeneralAverage(scores []ScoreFact) float64 {
	var acc accumulator
	for _, s := range scores {
		acc.add(s.Value)
	}
	return Round(acc.mean(), 2)
}

// PassRate is the percentage of scores at or above PassingScore, rounded to
// 1 decimal.
func PassRate(scores []ScoreFact) float64 {
	passed := 0
	for _, s := range scores {
		if s.Value >= PassingScore {
			passed++
		}
	}
	return Round(Percentage(passed, len(scores)), 1)
}

// GradeDistribution places every score in exactly one bucket.
func GradeDistribution(scores []ScoreFact) Distribution {
	d := Distribution{Total: len(scores)}
	for _, s := range scores {
		switch Bucket(s.Value) {
		case "excellent":
			d.Excellent++
		case "good":
			d.Good++
		case "regular":
			d.Regular++
		default:
			d.Insufficient++
		}
	}
	return d
}

// StatusCount is the number of attendance records with a given status.
type StatusCount struct {
	Status models.AttendanceStatus `json:"status"`
	Label  string                  `json:"label"`
	Count  int                     `json:"count"`
}

// AttendanceOn counts records per status for one calendar day. Every status
// is present in the output, in display order.
func AttendanceOn(records []AttendanceFact, day time.Time) []StatusCount {
	counts := make(map[models.AttendanceStatus]int, len(models.AttendanceStatuses))
	y, m, d := day.Date()
	for _, r := range records {
		ry, rm, rd := r.Date.Date()
		if ry == y && rm == m && rd == d {
			counts[r.Status]++
		}
	}
	out := make([]StatusCount, 0, len(models.AttendanceStatuses))
	for _, status := range models.AttendanceStatuses {
		out = append(out, StatusCount{Status: status, Label: status.Label(), Count: counts[status]})
	}
	return out
}

// AbsenteeismRate is the share of records counting as an absence (absent or
// late), unrounded.
func AbsenteeismRate(records []AttendanceFact) float64 {
	absences := 0
	for _, r := range records {
		if r.Status.CountsAsAbsence() {
			absences++
		}
	}
	return Percentage(absences, len(records))
}

// Counts are the entity totals reported in the general summary.
type Counts struct {
	ActiveStudents int `db:"active_students" json:"active_students"`
	ActiveTeachers int `db:"active_teachers" json:"active_teachers"`
	Courses        int `db:"courses" json:"courses"`
	Assessments    int `db:"assessments" json:"assessments"`
}

// Summary is the general indicator block.
type Summary struct {
	Counts
	ScoreCount     int     `json:"score_count"`
	GeneralAverage float64 `json:"general_average"`
	PassRate       float64 `json:"pass_rate"`
}

// Summarize combines entity counts with score aggregates.
func Summarize(counts Counts, scores []ScoreFact) Summary {
	return Summary{
		Counts:         counts,
		ScoreCount:     len(scores),
		GeneralAverage: GeneralAverage(scores),
		PassRate:       PassRate(scores),
	}
}
