package kpi

import "github.com/noah-isme/school-indicators-api/internal/models"

// CourseAverage is the mean score of a course.
type CourseAverage struct {
	CourseID        string  `json:"course_id"`
	Label           string  `json:"label"`
	GradeLevel      string  `json:"grade_level"`
	Subject         string  `json:"subject"`
	Section         string  `json:"section"`
	TeacherName     string  `json:"teacher_name"`
	Average         float64 `json:"average"`
	ScoreCount      int     `json:"score_count"`
	EnrollmentCount int     `json:"enrollment_count"`
	AssessmentCount int     `json:"assessment_count"`
}

// CourseAbsenteeism is the absence rate of a course.
type CourseAbsenteeism struct {
	CourseID     string  `json:"course_id"`
	Label        string  `json:"label"`
	GradeLevel   string  `json:"grade_level"`
	Subject      string  `json:"subject"`
	Section      string  `json:"section"`
	TotalRecords int     `json:"total_records"`
	Absences     int     `json:"absences"`
	Percentage   float64 `json:"percentage"`
}

// CourseAverageOf returns the rounded mean of scores belonging to courseID.
// A course without scores averages 0.
func CourseAverageOf(courseID string, scores []ScoreFact) float64 {
	var acc accumulator
	for _, s := range scores {
		if s.CourseID == courseID {
			acc.add(s.Value)
		}
	}
	return Round(acc.mean(), 2)
}

// CourseAverages lists the average of every course having at least one
// assessment, in the order the courses were given.
func CourseAverages(courses []CourseRef, scores []ScoreFact) []CourseAverage {
	return courseAverages(courses, scores, false)
}

// CourseStatistics lists every course with its roster size, assessment count
// and average, including courses nothing was recorded for.
func CourseStatistics(courses []CourseRef, scores []ScoreFact) []CourseAverage {
	return courseAverages(courses, scores, true)
}

func courseAverages(courses []CourseRef, scores []ScoreFact, all bool) []CourseAverage {
	byCourse := make(map[string]*accumulator)
	for _, s := range scores {
		acc, ok := byCourse[s.CourseID]
		if !ok {
			acc = &accumulator{}
			byCourse[s.CourseID] = acc
		}
		acc.add(s.Value)
	}

	out := make([]CourseAverage, 0, len(courses))
	for _, c := range courses {
		if c.AssessmentCount == 0 && !all {
			continue
		}
		item := CourseAverage{
			CourseID:        c.ID,
			Label:           models.CourseLabel(c.GradeLevel, c.Subject, c.Section),
			GradeLevel:      c.GradeLevel,
			Subject:         c.Subject,
			Section:         c.Section,
			TeacherName:     c.TeacherName,
			EnrollmentCount: c.EnrollmentCount,
			AssessmentCount: c.AssessmentCount,
		}
		if acc, ok := byCourse[c.ID]; ok {
			item.Average = Round(acc.mean(), 2)
			item.ScoreCount = acc.count
		}
		out = append(out, item)
	}
	return out
}

// CourseAbsenteeismOf computes the absence rate for one course.
func CourseAbsenteeismOf(course CourseRef, records []AttendanceFact) CourseAbsenteeism {
	item := CourseAbsenteeism{
		CourseID:   course.ID,
		Label:      models.CourseLabel(course.GradeLevel, course.Subject, course.Section),
		GradeLevel: course.GradeLevel,
		Subject:    course.Subject,
		Section:    course.Section,
	}
	for _, r := range records {
		if r.CourseID != course.ID {
			continue
		}
		item.TotalRecords++
		if r.Status.CountsAsAbsence() {
			item.Absences++
		}
	}
	item.Percentage = Round(Percentage(item.Absences, item.TotalRecords), 2)
	return item
}

// CourseAbsenteeismList computes the absence rate for every course, including
// courses with no attendance taken.
func CourseAbsenteeismList(courses []CourseRef, records []AttendanceFact) []CourseAbsenteeism {
	byCourse := make(map[string][]AttendanceFact)
	for _, r := range records {
		byCourse[r.CourseID] = append(byCourse[r.CourseID], r)
	}
	out := make([]CourseAbsenteeism, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseAbsenteeismOf(c, byCourse[c.ID]))
	}
	return out
}
