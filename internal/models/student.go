package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FirstNames string    `db:"first_names" json:"first_names"`
	LastNames  string    `db:"last_names" json:"last_names"`
	LegalID    string    `db:"legal_id" json:"legal_id"`
	Email      *string   `db:"email" json:"email,omitempty"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	BirthDate  time.Time `db:"birth_date" json:"birth_date"`
	Address    *string   `db:"address" json:"address,omitempty"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name of the student.
func (s Student) FullName() string {
	return FullName(s.FirstNames, s.LastNames)
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ListOptions
	CourseID string
	Active   *bool
}
