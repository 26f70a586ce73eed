package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

// seedSink records what the generator writes and enforces the invariants the
// real services would.
type seedSink struct {
	validate    *validator.Validate
	seq         int
	problems    []string
	enrolled    map[string]bool
	assessments map[string]string
	attendance  map[string]bool
	studentErr  error
	resets      int
}

func newSeedSink() *seedSink {
	return &seedSink{
		validate:    NewValidator(),
		enrolled:    map[string]bool{},
		assessments: map[string]string{},
		attendance:  map[string]bool{},
	}
}

func (s *seedSink) id(prefix string, req interface{}) string {
	if err := s.validate.Struct(req); err != nil {
		s.problems = append(s.problems, fmt.Sprintf("%T: %v", req, err))
	}
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *seedSink) Reset(context.Context) (models.DeletedRows, error) {
	s.resets++
	return models.DeletedRows{"students": 3, "scores": 9}, nil
}

type (
	sinkGrades      struct{ *seedSink }
	sinkSubjects    struct{ *seedSink }
	sinkPeriods     struct{ *seedSink }
	sinkTeachers    struct{ *seedSink }
	sinkStudents    struct{ *seedSink }
	sinkGuardians   struct{ *seedSink }
	sinkCourses     struct{ *seedSink }
	sinkEnrollments struct{ *seedSink }
	sinkLinks       struct{ *seedSink }
	sinkAssessments struct{ *seedSink }
	sinkScores      struct{ *seedSink }
	sinkAttendance  struct{ *seedSink }
)

func (f sinkGrades) Create(_ context.Context, req GradeLevelRequest) (*models.GradeLevel, error) {
	return &models.GradeLevel{ID: f.id("g", req), Name: req.Name}, nil
}

func (f sinkSubjects) Create(_ context.Context, req SubjectRequest) (*models.Subject, error) {
	return &models.Subject{ID: f.id("sub", req), Code: req.Code, Name: req.Name}, nil
}

func (f sinkPeriods) Create(_ context.Context, req AcademicPeriodRequest) (*models.AcademicPeriod, error) {
	start, _ := time.Parse(dateLayout, req.StartDate)
	end, _ := time.Parse(dateLayout, req.EndDate)
	return &models.AcademicPeriod{ID: f.id("p", req), Name: req.Name, StartDate: start, EndDate: end}, nil
}

func (f sinkTeachers) Create(_ context.Context, req TeacherRequest) (*models.Teacher, error) {
	return &models.Teacher{ID: f.id("t", req)}, nil
}

func (f sinkStudents) Create(_ context.Context, req StudentRequest) (*models.Student, error) {
	if f.studentErr != nil {
		return nil, f.studentErr
	}
	return &models.Student{ID: f.id("s", req), LegalID: req.LegalID}, nil
}

func (f sinkGuardians) Create(_ context.Context, req GuardianRequest) (*models.Guardian, error) {
	return &models.Guardian{ID: f.id("gu", req)}, nil
}

func (f sinkCourses) Create(_ context.Context, req CourseRequest) (*models.CourseDetail, error) {
	return &models.CourseDetail{Course: models.Course{ID: f.id("c", req)}, SubjectName: "Subject"}, nil
}

func (f sinkEnrollments) Enroll(_ context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	key := req.StudentID + "|" + req.CourseID
	if f.enrolled[key] {
		return nil, appErrors.ErrDuplicateEnrollment
	}
	f.enrolled[key] = true
	return &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: f.id("e", req)}}, nil
}

func (f sinkLinks) Link(_ context.Context, req LinkGuardianRequest) (*models.GuardianLinkDetail, error) {
	return &models.GuardianLinkDetail{GuardianLink: models.GuardianLink{ID: f.id("l", req)}}, nil
}

func (f sinkAssessments) Create(_ context.Context, req AssessmentRequest) (*models.AssessmentDetail, error) {
	id := f.id("a", req)
	f.assessments[id] = req.CourseID
	return &models.AssessmentDetail{Assessment: models.Assessment{ID: id, CourseID: req.CourseID}}, nil
}

func (f sinkScores) Record(_ context.Context, req ScoreRequest) (*models.ScoreDetail, error) {
	if !f.enrolled[req.StudentID+"|"+f.assessments[req.AssessmentID]] {
		return nil, appErrors.ErrNotEnrolled
	}
	if v := *req.Value; v < models.MinScoreValue || v > models.MaxScoreValue {
		return nil, appErrors.ErrOutOfRange
	}
	return &models.ScoreDetail{Score: models.Score{ID: f.id("sc", req)}}, nil
}

func (f sinkAttendance) Record(_ context.Context, req AttendanceRequest) (*models.AttendanceDetail, error) {
	if !f.enrolled[req.StudentID+"|"+req.CourseID] {
		return nil, appErrors.ErrNotEnrolled
	}
	key := req.StudentID + "|" + req.CourseID + "|" + req.Date
	if f.attendance[key] {
		return nil, appErrors.ErrDuplicateAttendance
	}
	f.attendance[key] = true
	return &models.AttendanceDetail{AttendanceRecord: models.AttendanceRecord{ID: f.id("at", req)}}, nil
}

func newSeedService(sink *seedSink, cache cacheInvalidator) *SeedService {
	svc := NewSeedService(SeedTargets{
		GradeLevels:   sinkGrades{sink},
		Subjects:      sinkSubjects{sink},
		Periods:       sinkPeriods{sink},
		Teachers:      sinkTeachers{sink},
		Students:      sinkStudents{sink},
		Guardians:     sinkGuardians{sink},
		Courses:       sinkCourses{sink},
		Enrollments:   sinkEnrollments{sink},
		GuardianLinks: sinkLinks{sink},
		Assessments:   sinkAssessments{sink},
		Scores:        sinkScores{sink},
		Attendance:    sinkAttendance{sink},
	}, sink, cache, zap.NewNop())
	// Saturday: the 30 days back hold 21 weekdays.
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestSeedServiceRunBuildsConsistentDataset(t *testing.T) {
	sink := newSeedSink()
	cache := &fakeCache{}

	report, err := newSeedService(sink, cache).Run(context.Background(), SeedOptions{Students: 12, Seed: 42})
	require.NoError(t, err)

	assert.Empty(t, sink.problems)
	assert.Zero(t, sink.resets)
	assert.Nil(t, report.Deleted)
	assert.Equal(t, map[string]int{
		"grade_levels":       6,
		"subjects":           7,
		"academic_periods":   1,
		"teachers":           7,
		"students":           12,
		"guardians":          4,
		"guardian_links":     4,
		"courses":            42,
		"enrollments":        210,
		"assessments":        126,
		"scores":             630,
		"attendance_records": 21 * coursesPerDay * studentsPerGrade,
	}, report.Created)
	for table := range report.Created {
		assert.Contains(t, SeedTables, table)
	}
	assert.Equal(t, []string{KPICachePattern}, cache.patterns)
}

func TestSeedServiceResetFirst(t *testing.T) {
	sink := newSeedSink()

	report, err := newSeedService(sink, nil).Run(context.Background(), SeedOptions{Reset: true, Students: 6, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, sink.resets)
	assert.Equal(t, int64(12), report.Deleted.Total())
	assert.Equal(t, 6, report.Created["students"])
}

func TestSeedServiceStopsOnConflict(t *testing.T) {
	sink := newSeedSink()
	sink.studentErr = appErrors.WithField(appErrors.ErrConflict, "legal_id", "legal id already registered")
	cache := &fakeCache{}

	report, err := newSeedService(sink, cache).Run(context.Background(), SeedOptions{Seed: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Contains(t, err.Error(), "seed people")
	assert.Equal(t, 6, report.Created["grade_levels"])
	assert.Zero(t, report.Created["students"])
	assert.Empty(t, cache.patterns)
}
