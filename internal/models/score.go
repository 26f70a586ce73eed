package models

import "time"

// Score bounds.
const (
	MinScoreValue = 0.0
	MaxScoreValue = 100.0
)

// Score is one student's result on one assessment.
type Score struct {
	ID           string    `db:"id" json:"id"`
	AssessmentID string    `db:"assessment_id" json:"assessment_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Value        float64   `db:"value" json:"value"`
	RecordedAt   time.Time `db:"recorded_at" json:"recorded_at"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ScoreDetail adds student and assessment context.
type ScoreDetail struct {
	Score
	StudentFirstNames string `db:"student_first_names" json:"-"`
	StudentLastNames  string `db:"student_last_names" json:"-"`
	StudentName       string `db:"-" json:"student_name"`
	AssessmentName    string `db:"assessment_name" json:"assessment_name"`
	CourseID          string `db:"course_id" json:"course_id"`
	SubjectName       string `db:"subject_name" json:"subject_name"`
}

// Decorate fills derived display fields.
func (d *ScoreDetail) Decorate() {
	d.StudentName = FullName(d.StudentFirstNames, d.StudentLastNames)
}

// ScoreFilter provides filters for listing scores.
type ScoreFilter struct {
	ListOptions
	AssessmentID string
	StudentID    string
	CourseID     string
}
