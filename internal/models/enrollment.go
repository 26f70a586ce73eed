package models

import "time"

// Enrollment registers a student in a course.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledOn time.Time `db:"enrolled_on" json:"enrolled_on"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentFirstNames string `db:"student_first_names" json:"-"`
	StudentLastNames  string `db:"student_last_names" json:"-"`
	StudentName       string `db:"-" json:"student_name"`
	GradeLevelName    string `db:"grade_level_name" json:"grade_level_name"`
	SubjectName       string `db:"subject_name" json:"subject_name"`
	Section           string `db:"section" json:"section"`
	CourseLabel       string `db:"-" json:"course_label"`
}

// Decorate fills derived display fields.
func (d *EnrollmentDetail) Decorate() {
	d.StudentName = FullName(d.StudentFirstNames, d.StudentLastNames)
	d.CourseLabel = CourseLabel(d.GradeLevelName, d.SubjectName, d.Section)
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	ListOptions
	StudentID string
	CourseID  string
	Active    *bool
}
