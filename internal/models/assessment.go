package models

import "time"

// AssessmentType classifies an assessment.
type AssessmentType string

const (
	AssessmentExam          AssessmentType = "exam"
	AssessmentAssignment    AssessmentType = "assignment"
	AssessmentProject       AssessmentType = "project"
	AssessmentPractice      AssessmentType = "practice"
	AssessmentParticipation AssessmentType = "participation"
)

var assessmentTypeLabels = map[AssessmentType]string{
	AssessmentExam:          "Exam",
	AssessmentAssignment:    "Assignment",
	AssessmentProject:       "Project",
	AssessmentPractice:      "Practice",
	AssessmentParticipation: "Participation",
}

// Weight bounds accepted for an assessment.
const (
	MinAssessmentWeight = 0.01
	MaxAssessmentWeight = 100.0
)

// Valid reports whether t is a known assessment type.
func (t AssessmentType) Valid() bool {
	_, ok := assessmentTypeLabels[t]
	return ok
}

// Label returns the human readable type.
func (t AssessmentType) Label() string {
	if label, ok := assessmentTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Assessment is a graded activity belonging to a course.
type Assessment struct {
	ID          string         `db:"id" json:"id"`
	CourseID    string         `db:"course_id" json:"course_id"`
	Name        string         `db:"name" json:"name"`
	Description *string        `db:"description" json:"description,omitempty"`
	Type        AssessmentType `db:"type" json:"type"`
	TypeLabel   string         `db:"-" json:"type_label"`
	Date        time.Time      `db:"date" json:"date"`
	Weight      float64        `db:"weight" json:"weight"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AssessmentDetail adds course naming to an assessment.
type AssessmentDetail struct {
	Assessment
	GradeLevelName string `db:"grade_level_name" json:"grade_level_name"`
	SubjectName    string `db:"subject_name" json:"subject_name"`
	Section        string `db:"section" json:"section"`
	CourseLabel    string `db:"-" json:"course_label"`
}

// Decorate fills derived display fields.
func (d *AssessmentDetail) Decorate() {
	d.TypeLabel = d.Type.Label()
	d.CourseLabel = CourseLabel(d.GradeLevelName, d.SubjectName, d.Section)
}

// AssessmentFilter provides filters for listing assessments.
type AssessmentFilter struct {
	ListOptions
	CourseID string
	Type     AssessmentType
	From     *time.Time
	To       *time.Time
}
