package models

import (
	"fmt"
	"time"
)

// DefaultSection is used when a course is created without a section.
const DefaultSection = "A"

// Course is one offering of a subject for a grade level, period and section.
type Course struct {
	ID           string    `db:"id" json:"id"`
	GradeLevelID string    `db:"grade_level_id" json:"grade_level_id"`
	SubjectID    string    `db:"subject_id" json:"subject_id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	PeriodID     string    `db:"period_id" json:"period_id"`
	Section      string    `db:"section" json:"section"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the names of its references.
type CourseDetail struct {
	Course
	GradeLevelName    string `db:"grade_level_name" json:"grade_level_name"`
	SubjectCode       string `db:"subject_code" json:"subject_code"`
	SubjectName       string `db:"subject_name" json:"subject_name"`
	TeacherFirstNames string `db:"teacher_first_names" json:"-"`
	TeacherLastNames  string `db:"teacher_last_names" json:"-"`
	TeacherName       string `db:"-" json:"teacher_name"`
	PeriodName        string `db:"period_name" json:"period_name"`
	Label             string `db:"-" json:"label"`
}

// CourseLabel renders "<grade> - <subject> (<section>)".
func CourseLabel(gradeLevel, subject, section string) string {
	return fmt.Sprintf("%s - %s (%s)", gradeLevel, subject, section)
}

// Decorate fills derived display fields.
func (d *CourseDetail) Decorate() {
	d.TeacherName = FullName(d.TeacherFirstNames, d.TeacherLastNames)
	d.Label = CourseLabel(d.GradeLevelName, d.SubjectName, d.Section)
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	ListOptions
	GradeLevelID string
	SubjectID    string
	TeacherID    string
	PeriodID     string
}
