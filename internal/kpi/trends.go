package kpi

import (
	"sort"
	"time"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const monthLayout = "2006-01"

// MonthlyPoint is one calendar month of a time series.
type MonthlyPoint struct {
	Month string  `json:"month"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyScoreTrend averages scores recorded at or after since, grouped by
// calendar month (UTC) in ascending order.
func MonthlyScoreTrend(scores []ScoreFact, since time.Time) []MonthlyPoint {
	buckets := make(map[time.Time]*accumulator)
	for _, s := range scores {
		if s.RecordedAt.Before(since) {
			continue
		}
		key := monthStart(s.RecordedAt)
		acc, ok := buckets[key]
		if !ok {
			acc = &accumulator{}
			buckets[key] = acc
		}
		acc.add(s.Value)
	}
	out := make([]MonthlyPoint, 0, len(buckets))
	for month, acc := range buckets {
		out = append(out, MonthlyPoint{
			Month: month.Format(monthLayout),
			Label: month.Format("January 2006"),
			Value: Round(acc.mean(), 2),
			Count: acc.count,
		})
	}
	sortPoints(out)
	return out
}

// MonthlyAbsenteeism is the share of records marked absent per month for
// records dated at or after since, rounded to 1 decimal. Only the absent
// status counts here; late arrivals are excluded from the monthly series.
func MonthlyAbsenteeism(records []AttendanceFact, since time.Time) []MonthlyPoint {
	type tally struct{ absent, total int }
	buckets := make(map[time.Time]*tally)
	for _, r := range records {
		if r.Date.Before(since) {
			continue
		}
		key := monthStart(r.Date)
		t, ok := buckets[key]
		if !ok {
			t = &tally{}
			buckets[key] = t
		}
		t.total++
		if r.Status == models.AttendanceAbsent {
			t.absent++
		}
	}
	out := make([]MonthlyPoint, 0, len(buckets))
	for month, t := range buckets {
		out = append(out, MonthlyPoint{
			Month: month.Format(monthLayout),
			Label: month.Format("January 2006"),
			Value: Round(Percentage(t.absent, t.total), 1),
			Count: t.total,
		})
	}
	sortPoints(out)
	return out
}

func sortPoints(points []MonthlyPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
}
