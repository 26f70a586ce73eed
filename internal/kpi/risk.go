package kpi

// RiskLevel grades an at-risk student.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "ALTO"
	RiskMedium RiskLevel = "MEDIO"
)

// RiskAssessment describes a student flagged as academically at risk.
type RiskAssessment struct {
	StudentID   string    `json:"student_id"`
	StudentName string    `json:"student_name"`
	LegalID     string    `json:"legal_id"`
	Average     float64   `json:"average"`
	Absenteeism float64   `json:"absenteeism"`
	ScoreCount  int       `json:"score_count"`
	Level       RiskLevel `json:"level"`
}

// ClassifyRisk applies the risk rule to an unrounded average and absenteeism.
// The boolean is false when the student is not at risk. High risk is checked
// before medium risk.
func ClassifyRisk(average, absenteeism float64) (RiskLevel, bool) {
	if average >= RiskAverage && absenteeism <= RiskAbsenteeism {
		return "", false
	}
	if average < HighRiskAverage || absenteeism > HighRiskAbsenteeism {
		return RiskHigh, true
	}
	return RiskMedium, true
}

// StudentRisk evaluates one student from that student's own scores and
// attendance. Students without scores are not evaluated and never at risk.
func StudentRisk(student StudentRef, scores []ScoreFact, attendance []AttendanceFact) (RiskAssessment, bool) {
	if len(scores) == 0 {
		return RiskAssessment{}, false
	}
	var acc accumulator
	for _, s := range scores {
		acc.add(s.Value)
	}
	average := acc.mean()
	absenteeism := AbsenteeismRate(attendance)

	level, atRisk := ClassifyRisk(average, absenteeism)
	if !atRisk {
		return RiskAssessment{}, false
	}
	return RiskAssessment{
		StudentID:   student.ID,
		StudentName: student.Name,
		LegalID:     student.LegalID,
		Average:     Round(average, 2),
		Absenteeism: Round(absenteeism, 2),
		ScoreCount:  acc.count,
		Level:       level,
	}, true
}

// AtRiskStudents evaluates every listed student and returns those at risk in
// the order the students were given.
func AtRiskStudents(students []StudentRef, scores []ScoreFact, attendance []AttendanceFact) []RiskAssessment {
	scoresByStudent := make(map[string][]ScoreFact)
	for _, s := range scores {
		scoresByStudent[s.StudentID] = append(scoresByStudent[s.StudentID], s)
	}
	attendanceByStudent := make(map[string][]AttendanceFact)
	for _, a := range attendance {
		attendanceByStudent[a.StudentID] = append(attendanceByStudent[a.StudentID], a)
	}

	out := make([]RiskAssessment, 0)
	for _, student := range students {
		if risk, ok := StudentRisk(student, scoresByStudent[student.ID], attendanceByStudent[student.ID]); ok {
			out = append(out, risk)
		}
	}
	return out
}
