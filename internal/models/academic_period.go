package models

import "time"

// AcademicPeriod is a dated term such as a semester.
type AcademicPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Contains reports whether the date falls inside the period, bounds included.
func (p AcademicPeriod) Contains(date time.Time) bool {
	d := date.UTC().Truncate(24 * time.Hour)
	return !d.Before(p.StartDate.UTC().Truncate(24*time.Hour)) && !d.After(p.EndDate.UTC().Truncate(24*time.Hour))
}

// AcademicPeriodFilter captures list options for periods.
type AcademicPeriodFilter struct {
	ListOptions
	Active *bool
}
