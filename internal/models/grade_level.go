package models

import "time"

// GradeLevel is a school year level such as "1st Secondary".
type GradeLevel struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GradeLevelFilter captures list options for grade levels.
type GradeLevelFilter struct {
	ListOptions
}
