package kpi

import "sort"

// StudentRanking is a student ordered by average score.
type StudentRanking struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	LegalID     string  `json:"legal_id"`
	Average     float64 `json:"average"`
	ScoreCount  int     `json:"score_count"`
}

// TeacherRanking is a teacher ordered by the average score of their courses.
type TeacherRanking struct {
	TeacherID    string  `json:"teacher_id"`
	TeacherName  string  `json:"teacher_name"`
	Average      float64 `json:"average"`
	ScoreCount   int     `json:"score_count"`
	StudentCount int     `json:"student_count"`
}

// StudentAverages returns every listed student with their average, including
// students without scores (average 0), in input order.
func StudentAverages(students []StudentRef, scores []ScoreFact) []StudentRanking {
	byStudent := make(map[string]*accumulator)
	for _, s := range scores {
		acc, ok := byStudent[s.StudentID]
		if !ok {
			acc = &accumulator{}
			byStudent[s.StudentID] = acc
		}
		acc.add(s.Value)
	}
	out := make([]StudentRanking, 0, len(students))
	for _, st := range students {
		item := StudentRanking{StudentID: st.ID, StudentName: st.Name, LegalID: st.LegalID}
		if acc, ok := byStudent[st.ID]; ok {
			item.Average = Round(acc.mean(), 2)
			item.ScoreCount = acc.count
		}
		out = append(out, item)
	}
	return out
}

// TopStudents ranks students with at least minScores scores by average,
// descending. Ties keep input order. At most n entries are returned; n <= 0
// means no limit.
func TopStudents(students []StudentRef, scores []ScoreFact, n, minScores int) []StudentRanking {
	all := StudentAverages(students, scores)
	eligible := make([]StudentRanking, 0, len(all))
	for _, item := range all {
		if item.ScoreCount > 0 && item.ScoreCount >= minScores {
			eligible = append(eligible, item)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Average > eligible[j].Average })
	return limit(eligible, n)
}

// LowestStudents lists students with at least one score whose average is below
// PassingScore, lowest first. Ties keep input order.
func LowestStudents(students []StudentRef, scores []ScoreFact, n int) []StudentRanking {
	all := StudentAverages(students, scores)
	failing := make([]StudentRanking, 0)
	for _, item := range all {
		if item.ScoreCount > 0 && item.Average < PassingScore {
			failing = append(failing, item)
		}
	}
	sort.SliceStable(failing, func(i, j int) bool { return failing[i].Average < failing[j].Average })
	return limit(failing, n)
}

// TeacherRankings ranks teachers with at least one score in their courses by
// the mean of those scores, descending. Ties keep input order.
func TeacherRankings(teachers []TeacherRef, scores []ScoreFact, n int) []TeacherRanking {
	byTeacher := make(map[string]*accumulator)
	for _, s := range scores {
		acc, ok := byTeacher[s.TeacherID]
		if !ok {
			acc = &accumulator{}
			byTeacher[s.TeacherID] = acc
		}
		acc.add(s.Value)
	}
	out := make([]TeacherRanking, 0, len(teachers))
	for _, t := range teachers {
		acc, ok := byTeacher[t.ID]
		if !ok {
			continue
		}
		out = append(out, TeacherRanking{
			TeacherID:    t.ID,
			TeacherName:  t.Name,
			Average:      Round(acc.mean(), 2),
			ScoreCount:   acc.count,
			StudentCount: t.StudentCount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Average > out[j].Average })
	return limit(out, n)
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
