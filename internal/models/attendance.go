package models

import "time"

// AttendanceStatus is the daily presence state of a student in a course.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceStatuses lists every status in display order.
var AttendanceStatuses = []AttendanceStatus{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused}

var attendanceStatusLabels = map[AttendanceStatus]string{
	AttendancePresent: "Present",
	AttendanceAbsent:  "Absent",
	AttendanceLate:    "Late",
	AttendanceExcused: "Excused",
}

// Valid reports whether s is a known status.
func (s AttendanceStatus) Valid() bool {
	_, ok := attendanceStatusLabels[s]
	return ok
}

// Label returns the human readable status.
func (s AttendanceStatus) Label() string {
	if label, ok := attendanceStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CountsAsAbsence reports whether the status counts toward absenteeism.
// Late arrivals count; excused absences do not.
func (s AttendanceStatus) CountsAsAbsence() bool {
	return s == AttendanceAbsent || s == AttendanceLate
}

// AttendanceRecord is one day of presence for a student in a course.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	CourseID    string           `db:"course_id" json:"course_id"`
	Date        time.Time        `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	StatusLabel string           `db:"-" json:"status_label"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceDetail adds student and course naming.
type AttendanceDetail struct {
	AttendanceRecord
	StudentFirstNames string `db:"student_first_names" json:"-"`
	StudentLastNames  string `db:"student_last_names" json:"-"`
	StudentName       string `db:"-" json:"student_name"`
	GradeLevelName    string `db:"grade_level_name" json:"grade_level_name"`
	SubjectName       string `db:"subject_name" json:"subject_name"`
	Section           string `db:"section" json:"section"`
	CourseLabel       string `db:"-" json:"course_label"`
}

// Decorate fills derived display fields.
func (d *AttendanceDetail) Decorate() {
	d.StatusLabel = d.Status.Label()
	d.StudentName = FullName(d.StudentFirstNames, d.StudentLastNames)
	d.CourseLabel = CourseLabel(d.GradeLevelName, d.SubjectName, d.Section)
}

// AttendanceFilter provides filters for listing attendance.
type AttendanceFilter struct {
	ListOptions
	StudentID string
	CourseID  string
	Status    AttendanceStatus
	Date      *time.Time
}
