package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/models"
)

func TestKPIRepositoryScoreFacts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKPIRepository(db)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recorded := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"student_id", "course_id", "teacher_id", "assessment_id", "value", "recorded_at"}).
		AddRow("s1", "c1", "t1", "a1", 72.5, recorded)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND a.course_id = $1 AND sc.recorded_at >= $2 ORDER BY sc.recorded_at, sc.id")).
		WithArgs("c1", since).
		WillReturnRows(rows)

	facts, err := repo.ScoreFacts(context.Background(), models.KPIFilter{CourseID: "c1", Since: &since})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, kpi.ScoreFact{StudentID: "s1", CourseID: "c1", TeacherID: "t1", AssessmentID: "a1", Value: 72.5, RecordedAt: recorded}, facts[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKPIRepositoryAttendanceFactsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKPIRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id, course_id, date, status FROM attendance_records WHERE 1=1 ORDER BY date, id")).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "course_id", "date", "status"}))

	facts, err := repo.AttendanceFacts(context.Background(), models.KPIFilter{})
	require.NoError(t, err)
	assert.NotNil(t, facts)
	assert.Empty(t, facts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKPIRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKPIRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(SELECT COUNT(*) FROM students WHERE active) AS active_students")).
		WillReturnRows(sqlmock.NewRows([]string{"active_students", "active_teachers", "courses", "assessments"}).AddRow(120, 9, 14, 40))

	counts, err := repo.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kpi.Counts{ActiveStudents: 120, ActiveTeachers: 9, Courses: 14, Assessments: 40}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKPIRepositoryCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewKPIRepository(db)

	rows := sqlmock.NewRows([]string{"id", "grade_level", "subject", "section", "teacher_name", "assessment_count", "enrollment_count"}).
		AddRow("c1", "1st Secondary", "Mathematics", "A", "Rosa Quispe", 0, 12)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.id = $1")).WithArgs("c1").WillReturnRows(rows)

	course, err := repo.Course(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, course.AssessmentCount)
	assert.Equal(t, 12, course.EnrollmentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
