package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/models"
)

type (
	gradeLevelCreator interface {
		Create(ctx context.Context, req GradeLevelRequest) (*models.GradeLevel, error)
	}
	subjectCreator interface {
		Create(ctx context.Context, req SubjectRequest) (*models.Subject, error)
	}
	periodCreator interface {
		Create(ctx context.Context, req AcademicPeriodRequest) (*models.AcademicPeriod, error)
	}
	teacherCreator interface {
		Create(ctx context.Context, req TeacherRequest) (*models.Teacher, error)
	}
	studentCreator interface {
		Create(ctx context.Context, req StudentRequest) (*models.Student, error)
	}
	guardianCreator interface {
		Create(ctx context.Context, req GuardianRequest) (*models.Guardian, error)
	}
	courseCreator interface {
		Create(ctx context.Context, req CourseRequest) (*models.CourseDetail, error)
	}
	enroller interface {
		Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error)
	}
	guardianLinker interface {
		Link(ctx context.Context, req LinkGuardianRequest) (*models.GuardianLinkDetail, error)
	}
	assessmentCreator interface {
		Create(ctx context.Context, req AssessmentRequest) (*models.AssessmentDetail, error)
	}
	scoreRecorder interface {
		Record(ctx context.Context, req ScoreRequest) (*models.ScoreDetail, error)
	}
	attendanceRecorder interface {
		Record(ctx context.Context, req AttendanceRequest) (*models.AttendanceDetail, error)
	}
	datasetResetter interface {
		Reset(ctx context.Context) (models.DeletedRows, error)
	}
)

// SeedTargets are the services demo data is written through, so every
// validation rule applies to generated rows.
type SeedTargets struct {
	GradeLevels   gradeLevelCreator
	Subjects      subjectCreator
	Periods       periodCreator
	Teachers      teacherCreator
	Students      studentCreator
	Guardians     guardianCreator
	Courses       courseCreator
	Enrollments   enroller
	GuardianLinks guardianLinker
	Assessments   assessmentCreator
	Scores        scoreRecorder
	Attendance    attendanceRecorder
}

// SeedOptions tune a seeding run.
type SeedOptions struct {
	Reset bool
	// Students defaults to 30.
	Students int
	// Seed fixes the random source; zero picks one from the clock.
	Seed int64
}

// SeedTables is the order in which seeded entities are created and reported.
var SeedTables = []string{
	"grade_levels", "subjects", "academic_periods", "teachers", "students", "guardians",
	"courses", "enrollments", "guardian_links", "assessments", "scores", "attendance_records",
}

// SeedReport summarises a seeding run.
type SeedReport struct {
	Deleted models.DeletedRows
	Created map[string]int
}

const (
	studentsPerGrade     = 5
	assessmentsPerCourse = 3
	attendanceDays       = 30
	coursesPerDay        = 10
	scoreMean            = 70.0
	scoreDeviation       = 15.0
	assessmentWeight     = 33.33
)

var (
	seedGrades = []struct{ name, description string }{
		{"1st Primary", "First year of primary school"},
		{"2nd Primary", "Second year of primary school"},
		{"3rd Primary", "Third year of primary school"},
		{"4th Primary", "Fourth year of primary school"},
		{"5th Primary", "Fifth year of primary school"},
		{"6th Primary", "Sixth year of primary school"},
	}
	seedSubjects = []struct{ code, name, description string }{
		{"MAT", "Mathematics", "Arithmetic and basic algebra"},
		{"LEN", "Language", "Reading and writing"},
		{"CIE", "Natural Sciences", "Biology, physics and chemistry"},
		{"SOC", "Social Sciences", "History and geography"},
		{"EDF", "Physical Education", "Sports and physical activity"},
		{"ART", "Arts", "Music and visual arts"},
		{"ING", "English", "Foreign language"},
	}
	seedTeachers = []struct{ first, last, email, phone, specialty string }{
		{"Juan", "Pérez García", "juan.perez@school.edu", "77123456", "Mathematics"},
		{"María", "López Silva", "maria.lopez@school.edu", "77234567", "Language"},
		{"Carlos", "González Rojas", "carlos.gonzalez@school.edu", "77345678", "Sciences"},
		{"Ana", "Martínez Vega", "ana.martinez@school.edu", "77456789", "Social Sciences"},
		{"Pedro", "Sánchez Torres", "pedro.sanchez@school.edu", "77567890", "Physical Education"},
		{"Laura", "Fernández Cruz", "laura.fernandez@school.edu", "77678901", "Arts"},
		{"Diego", "Rodríguez Ortiz", "diego.rodriguez@school.edu", "77789012", "English"},
	}
	seedBoys     = []string{"Juan", "Carlos", "Pedro", "Luis", "Miguel", "José", "Diego", "Andrés", "Daniel", "Fernando"}
	seedGirls    = []string{"María", "Ana", "Laura", "Carmen", "Isabel", "Patricia", "Sandra", "Lucía", "Elena", "Rosa"}
	seedSurnames = []string{"García", "López", "Martínez", "González", "Rodríguez", "Fernández", "Pérez", "Sánchez", "Torres", "Ramírez", "Flores", "Vega", "Silva", "Cruz", "Ortiz"}
	seedStreets  = []string{"Los Pinos", "Las Rosas", "El Sol", "La Luna"}

	seedAssessmentTypes = []models.AssessmentType{
		models.AssessmentExam, models.AssessmentAssignment, models.AssessmentProject, models.AssessmentPractice,
	}
	seedStatuses = []models.AttendanceStatus{
		models.AttendancePresent, models.AttendancePresent, models.AttendancePresent, models.AttendancePresent,
		models.AttendanceAbsent, models.AttendanceLate, models.AttendanceExcused,
	}
)

// SeedService fills an empty dataset with realistic demo data.
type SeedService struct {
	targets SeedTargets
	dataset datasetResetter
	cache   cacheInvalidator
	logger  *zap.Logger
	now     func() time.Time
}

// NewSeedService constructs a SeedService.
func NewSeedService(targets SeedTargets, dataset datasetResetter, cache cacheInvalidator, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{targets: targets, dataset: dataset, cache: cache, logger: logger, now: time.Now}
}

// seedRun carries the state of one Run call.
type seedRun struct {
	*SeedService
	rng      *rand.Rand
	size     int
	report   *SeedReport
	today    time.Time
	period   *models.AcademicPeriod
	grades   []*models.GradeLevel
	subjects []*models.Subject
	teachers []*models.Teacher
	students []*models.Student
	courses  []*models.CourseDetail
	enrolled map[string][]string
}

// Run optionally wipes the dataset and then generates grades, subjects, one
// academic period, teachers, students with guardians, a course per grade and
// subject, enrollments, assessments, scores and recent attendance.
func (s *SeedService) Run(ctx context.Context, opts SeedOptions) (*SeedReport, error) {
	if opts.Students <= 0 {
		opts.Students = 30
	}
	if opts.Seed == 0 {
		opts.Seed = s.now().UnixNano()
	}
	run := &seedRun{
		SeedService: s,
		rng:         rand.New(rand.NewSource(opts.Seed)),
		size:        opts.Students,
		report:      &SeedReport{Created: make(map[string]int, len(SeedTables))},
		today:       today(s.now()),
		enrolled:    make(map[string][]string),
	}

	if opts.Reset {
		deleted, err := s.dataset.Reset(ctx)
		if err != nil {
			return nil, internalError(err, "failed to reset dataset")
		}
		run.report.Deleted = deleted
		s.logger.Info("dataset reset", zap.Int64("rows", deleted.Total()))
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"catalogs", run.catalogs},
		{"people", run.people},
		{"courses", run.coursesAndEnrollments},
		{"assessments", run.assessmentsAndScores},
		{"attendance", run.attendance},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return run.report, fmt.Errorf("seed %s: %w", step.name, err)
		}
		s.logger.Debug("seed step done", zap.String("step", step.name))
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, KPICachePattern); err != nil {
			s.logger.Warn("kpi cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("dataset seeded", zap.Int64("seed", opts.Seed), zap.Any("created", run.report.Created))
	return run.report, nil
}

func (r *seedRun) count(table string) { r.report.Created[table]++ }

func (r *seedRun) date(t time.Time) string { return t.Format(dateLayout) }

func (r *seedRun) pick(items []string) string { return items[r.rng.Intn(len(items))] }

func (r *seedRun) catalogs(ctx context.Context) error {
	for _, g := range seedGrades {
		description := g.description
		grade, err := r.targets.GradeLevels.Create(ctx, GradeLevelRequest{Name: g.name, Description: &description})
		if err != nil {
			return fmt.Errorf("grade level %s: %w", g.name, err)
		}
		r.grades = append(r.grades, grade)
		r.count("grade_levels")
	}
	for _, sub := range seedSubjects {
		description := sub.description
		subject, err := r.targets.Subjects.Create(ctx, SubjectRequest{Code: sub.code, Name: sub.name, Description: &description})
		if err != nil {
			return fmt.Errorf("subject %s: %w", sub.code, err)
		}
		r.subjects = append(r.subjects, subject)
		r.count("subjects")
	}

	year := r.today.Year()
	active := true
	period, err := r.targets.Periods.Create(ctx, AcademicPeriodRequest{
		Name:      fmt.Sprintf("First Semester %d", year),
		StartDate: r.date(time.Date(year, time.February, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:   r.date(time.Date(year, time.July, 31, 0, 0, 0, 0, time.UTC)),
		Active:    &active,
	})
	if err != nil {
		return fmt.Errorf("academic period: %w", err)
	}
	r.period = period
	r.count("academic_periods")
	return nil
}

func (r *seedRun) people(ctx context.Context) error {
	for _, t := range seedTeachers {
		phone, specialty := t.phone, t.specialty
		teacher, err := r.targets.Teachers.Create(ctx, TeacherRequest{
			FirstNames: t.first, LastNames: t.last, Email: t.email, Phone: &phone, Specialty: &specialty,
		})
		if err != nil {
			return fmt.Errorf("teacher %s: %w", t.email, err)
		}
		r.teachers = append(r.teachers, teacher)
		r.count("teachers")
	}

	for i := 0; i < r.size; i++ {
		names := seedBoys
		if i%2 == 1 {
			names = seedGirls
		}
		first := r.pick(names)
		last := r.pick(seedSurnames) + " " + r.pick(seedSurnames)
		age := 6 + r.rng.Intn(7)
		birth := r.today.AddDate(-age, 0, -r.rng.Intn(365))
		email := fmt.Sprintf("student%03d@students.school.edu", i+1)
		phone := fmt.Sprintf("7%07d", 1000000+r.rng.Intn(9000000))
		address := fmt.Sprintf("Calle %s #%d", r.pick(seedStreets), 100+r.rng.Intn(900))
		student, err := r.targets.Students.Create(ctx, StudentRequest{
			FirstNames: first, LastNames: last, LegalID: fmt.Sprintf("%d", 10000000+i),
			Email: &email, Phone: &phone, BirthDate: r.date(birth), Address: &address,
		})
		if err != nil {
			return fmt.Errorf("student %d: %w", i+1, err)
		}
		r.students = append(r.students, student)
		r.count("students")

		// Every third student gets a guardian.
		if i%3 != 0 {
			continue
		}
		surname := strings.SplitN(last, " ", 2)[0]
		guardian, err := r.targets.Guardians.Create(ctx, GuardianRequest{
			FirstNames:   r.pick(seedGirls),
			LastNames:    surname,
			LegalID:      fmt.Sprintf("%d", 20000000+i),
			Phone:        fmt.Sprintf("6%07d", 1000000+r.rng.Intn(9000000)),
			Address:      &address,
			Relationship: string(models.RelationshipMother),
		})
		if err != nil {
			return fmt.Errorf("guardian of student %d: %w", i+1, err)
		}
		r.count("guardians")
		if _, err := r.targets.GuardianLinks.Link(ctx, LinkGuardianRequest{
			StudentID: student.ID, GuardianID: guardian.ID, IsPrimary: true,
		}); err != nil {
			return fmt.Errorf("guardian link of student %d: %w", i+1, err)
		}
		r.count("guardian_links")
	}
	return nil
}

func (r *seedRun) coursesAndEnrollments(ctx context.Context) error {
	for _, grade := range r.grades {
		var gradeCourses []*models.CourseDetail
		for _, subject := range r.subjects {
			teacher := r.teachers[r.rng.Intn(len(r.teachers))]
			course, err := r.targets.Courses.Create(ctx, CourseRequest{
				GradeLevelID: grade.ID, SubjectID: subject.ID, TeacherID: teacher.ID, PeriodID: r.period.ID, Section: "A",
			})
			if err != nil {
				return fmt.Errorf("course %s %s: %w", grade.Name, subject.Code, err)
			}
			r.courses = append(r.courses, course)
			gradeCourses = append(gradeCourses, course)
			r.count("courses")
		}

		picked := r.rng.Perm(len(r.students))
		if len(picked) > studentsPerGrade {
			picked = picked[:studentsPerGrade]
		}
		for _, idx := range picked {
			student := r.students[idx]
			for _, course := range gradeCourses {
				if _, err := r.targets.Enrollments.Enroll(ctx, EnrollRequest{
					StudentID: student.ID, CourseID: course.ID, EnrolledOn: r.period.StartDate.Format(dateLayout),
				}); err != nil {
					return fmt.Errorf("enroll student %s: %w", student.LegalID, err)
				}
				r.enrolled[course.ID] = append(r.enrolled[course.ID], student.ID)
				r.count("enrollments")
			}
		}
	}
	return nil
}

func (r *seedRun) assessmentsAndScores(ctx context.Context) error {
	weight := assessmentWeight
	for _, course := range r.courses {
		description := "Assessment of " + course.SubjectName
		for j := 0; j < assessmentsPerCourse; j++ {
			kind := seedAssessmentTypes[r.rng.Intn(len(seedAssessmentTypes))]
			on := r.period.StartDate.AddDate(0, 0, 30*j+r.rng.Intn(21))
			assessment, err := r.targets.Assessments.Create(ctx, AssessmentRequest{
				CourseID:    course.ID,
				Name:        fmt.Sprintf("%s %d", strings.ToUpper(string(kind[:1]))+string(kind[1:]), j+1),
				Description: &description,
				Type:        string(kind),
				Date:        r.date(on),
				Weight:      &weight,
			})
			if err != nil {
				return fmt.Errorf("assessment for course %s: %w", course.ID, err)
			}
			r.count("assessments")

			for _, studentID := range r.enrolled[course.ID] {
				value := r.scoreValue()
				req := ScoreRequest{AssessmentID: assessment.ID, StudentID: studentID, Value: &value}
				if value < kpi.PassingScore {
					notes := "Needs additional support"
					req.Notes = &notes
				}
				if _, err := r.targets.Scores.Record(ctx, req); err != nil {
					return fmt.Errorf("score for student %s: %w", studentID, err)
				}
				r.count("scores")
			}
		}
	}
	return nil
}

// scoreValue draws a score around the class mean, clamped to the valid range.
func (r *seedRun) scoreValue() float64 {
	v := r.rng.NormFloat64()*scoreDeviation + scoreMean
	v = math.Max(models.MinScoreValue, math.Min(models.MaxScoreValue, v))
	return math.Round(v*100) / 100
}

func (r *seedRun) attendance(ctx context.Context) error {
	for i := 0; i < attendanceDays; i++ {
		day := r.today.AddDate(0, 0, -i)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		order := r.rng.Perm(len(r.courses))
		if len(order) > coursesPerDay {
			order = order[:coursesPerDay]
		}
		for _, idx := range order {
			course := r.courses[idx]
			for _, studentID := range r.enrolled[course.ID] {
				status := seedStatuses[r.rng.Intn(len(seedStatuses))]
				if _, err := r.targets.Attendance.Record(ctx, AttendanceRequest{
					StudentID: studentID, CourseID: course.ID, Date: r.date(day), Status: string(status),
				}); err != nil {
					return fmt.Errorf("attendance for student %s: %w", studentID, err)
				}
				r.count("attendance_records")
			}
		}
	}
	return nil
}
