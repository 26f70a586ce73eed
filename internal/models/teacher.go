package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID         string    `db:"id" json:"id"`
	FirstNames string    `db:"first_names" json:"first_names"`
	LastNames  string    `db:"last_names" json:"last_names"`
	Email      string    `db:"email" json:"email"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	Specialty  *string   `db:"specialty" json:"specialty,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name of the teacher.
func (t Teacher) FullName() string {
	return FullName(t.FirstNames, t.LastNames)
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	ListOptions
	Active *bool
}
