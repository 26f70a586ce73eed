package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/dto"
	"github.com/noah-isme/school-indicators-api/internal/kpi"
	"github.com/noah-isme/school-indicators-api/internal/models"
)

type kpiRepository interface {
	ScoreFacts(ctx context.Context, filter models.KPIFilter) ([]kpi.ScoreFact, error)
	AttendanceFacts(ctx context.Context, filter models.KPIFilter) ([]kpi.AttendanceFact, error)
	ActiveStudents(ctx context.Context) ([]kpi.StudentRef, error)
	ActiveTeachers(ctx context.Context) ([]kpi.TeacherRef, error)
	Courses(ctx context.Context) ([]kpi.CourseRef, error)
	Course(ctx context.Context, id string) (*kpi.CourseRef, error)
	Counts(ctx context.Context) (kpi.Counts, error)
	UpcomingAssessments(ctx context.Context, from, to time.Time, limit int) ([]models.AssessmentDetail, error)
	RecentScores(ctx context.Context, limit int) ([]models.ScoreDetail, error)
}

// KPIServiceConfig tunes indicator windows and list sizes.
type KPIServiceConfig struct {
	CacheTTL     time.Duration
	TrendWindow  time.Duration
	TopLimit     int
	MinScores    int
	UpcomingDays int
	RecentLimit  int
}

// KPIServiceParams groups constructor dependencies.
type KPIServiceParams struct {
	Repo    kpiRepository
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  KPIServiceConfig
}

// KPIService loads facts from storage and derives indicators from them on
// every call. Results are cached only when the cache service is enabled.
type KPIService struct {
	repo    kpiRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
	cfg     KPIServiceConfig
}

// NewKPIService constructs a KPIService with defaults for unset config.
func NewKPIService(params KPIServiceParams) *KPIService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = 180 * 24 * time.Hour
	}
	if cfg.TopLimit <= 0 {
		cfg.TopLimit = 5
	}
	if cfg.MinScores <= 0 {
		cfg.MinScores = 3
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = 7
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KPIService{
		repo:    params.Repo,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		now:     time.Now,
		cfg:     cfg,
	}
}

// Config returns the effective configuration.
func (s *KPIService) Config() KPIServiceConfig {
	return s.cfg
}

// cached serves key from the cache when possible, otherwise computes and
// stores the value. Cache failures degrade to computing.
func cached[T any](ctx context.Context, s *KPIService, indicator, key string, compute func(context.Context) (T, error)) (T, bool, error) {
	var value T
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, key, &value); err == nil && hit {
			return value, true, nil
		}
	}
	start := time.Now()
	value, err := compute(ctx)
	s.metrics.ObserveKPIComputation(indicator, time.Since(start))
	if err != nil {
		var zero T
		return zero, false, err
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("kpi cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, false, nil
}

// Summary returns entity counts, general average and pass rate.
func (s *KPIService) Summary(ctx context.Context) (kpi.Summary, bool, error) {
	return cached(ctx, s, "summary", "kpi:summary", func(ctx context.Context) (kpi.Summary, error) {
		counts, err := s.repo.Counts(ctx)
		if err != nil {
			return kpi.Summary{}, internalError(err, "failed to count entities")
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return kpi.Summary{}, err
		}
		return kpi.Summarize(counts, scores), nil
	})
}

// AtRisk lists active students at academic risk.
func (s *KPIService) AtRisk(ctx context.Context) (dto.AtRiskResponse, bool, error) {
	return cached(ctx, s, "at_risk", "kpi:at-risk", func(ctx context.Context) (dto.AtRiskResponse, error) {
		students, err := s.students(ctx)
		if err != nil {
			return dto.AtRiskResponse{}, err
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return dto.AtRiskResponse{}, err
		}
		records, err := s.attendance(ctx, models.KPIFilter{})
		if err != nil {
			return dto.AtRiskResponse{}, err
		}
		return dto.NewAtRiskResponse(kpi.AtRiskStudents(students, scores, records)), nil
	})
}

// CourseAverages lists the average of every course with assessments.
func (s *KPIService) CourseAverages(ctx context.Context) ([]kpi.CourseAverage, bool, error) {
	return cached(ctx, s, "course_averages", "kpi:course-averages", func(ctx context.Context) ([]kpi.CourseAverage, error) {
		courses, err := s.courses(ctx)
		if err != nil {
			return nil, err
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return nil, err
		}
		return kpi.CourseAverages(courses, scores), nil
	})
}

// CourseStatistics lists every course with roster size, assessment count and
// average.
func (s *KPIService) CourseStatistics(ctx context.Context) ([]kpi.CourseAverage, bool, error) {
	return cached(ctx, s, "course_statistics", "kpi:course-statistics", func(ctx context.Context) ([]kpi.CourseAverage, error) {
		courses, err := s.courses(ctx)
		if err != nil {
			return nil, err
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return nil, err
		}
		return kpi.CourseStatistics(courses, scores), nil
	})
}

// CourseAverage returns the average of one course. A course without
// assessments or scores averages 0.
func (s *KPIService) CourseAverage(ctx context.Context, courseID string) (kpi.CourseAverage, bool, error) {
	return cached(ctx, s, "course_average", "kpi:course:"+courseID+":average", func(ctx context.Context) (kpi.CourseAverage, error) {
		course, err := s.repo.Course(ctx, courseID)
		if err != nil {
			return kpi.CourseAverage{}, loadError(err, "course")
		}
		scores, err := s.scores(ctx, models.KPIFilter{CourseID: courseID})
		if err != nil {
			return kpi.CourseAverage{}, err
		}
		return kpi.CourseStatistics([]kpi.CourseRef{*course}, scores)[0], nil
	})
}

// CourseAbsenteeismList returns the absence rate of every course.
func (s *KPIService) CourseAbsenteeismList(ctx context.Context) ([]kpi.CourseAbsenteeism, bool, error) {
	return cached(ctx, s, "course_absenteeism", "kpi:course-absenteeism", func(ctx context.Context) ([]kpi.CourseAbsenteeism, error) {
		courses, err := s.courses(ctx)
		if err != nil {
			return nil, err
		}
		records, err := s.attendance(ctx, models.KPIFilter{})
		if err != nil {
			return nil, err
		}
		return kpi.CourseAbsenteeismList(courses, records), nil
	})
}

// CourseAbsenteeism returns the absence rate of one course.
func (s *KPIService) CourseAbsenteeism(ctx context.Context, courseID string) (kpi.CourseAbsenteeism, bool, error) {
	return cached(ctx, s, "course_absenteeism_one", "kpi:course:"+courseID+":absenteeism", func(ctx context.Context) (kpi.CourseAbsenteeism, error) {
		course, err := s.repo.Course(ctx, courseID)
		if err != nil {
			return kpi.CourseAbsenteeism{}, loadError(err, "course")
		}
		records, err := s.attendance(ctx, models.KPIFilter{CourseID: courseID})
		if err != nil {
			return kpi.CourseAbsenteeism{}, err
		}
		return kpi.CourseAbsenteeismOf(*course, records), nil
	})
}

// GradeDistribution buckets every recorded score.
func (s *KPIService) GradeDistribution(ctx context.Context) (kpi.Distribution, bool, error) {
	return cached(ctx, s, "grade_distribution", "kpi:grade-distribution", func(ctx context.Context) (kpi.Distribution, error) {
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return kpi.Distribution{}, err
		}
		return kpi.GradeDistribution(scores), nil
	})
}

// PassRate returns the share of scores at or above the passing score.
func (s *KPIService) PassRate(ctx context.Context) (dto.PassRateResponse, bool, error) {
	return cached(ctx, s, "pass_rate", "kpi:pass-rate", func(ctx context.Context) (dto.PassRateResponse, error) {
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return dto.PassRateResponse{}, err
		}
		return dto.PassRateResponse{
			PassRate:     kpi.PassRate(scores),
			PassingScore: kpi.PassingScore,
			ScoreCount:   len(scores),
		}, nil
	})
}

// ScoreTrend returns the monthly average since the given time, or over the
// configured trend window when since is nil.
func (s *KPIService) ScoreTrend(ctx context.Context, since *time.Time) ([]kpi.MonthlyPoint, bool, error) {
	from := s.since(since)
	return cached(ctx, s, "score_trend", "kpi:trend:scores:"+from.Format(dateLayout), func(ctx context.Context) ([]kpi.MonthlyPoint, error) {
		scores, err := s.scores(ctx, models.KPIFilter{Since: &from})
		if err != nil {
			return nil, err
		}
		return kpi.MonthlyScoreTrend(scores, from), nil
	})
}

// AbsenteeismTrend returns the monthly absence percentage since the given
// time, or over the configured trend window when since is nil.
func (s *KPIService) AbsenteeismTrend(ctx context.Context, since *time.Time) ([]kpi.MonthlyPoint, bool, error) {
	from := s.since(since)
	return cached(ctx, s, "absenteeism_trend", "kpi:trend:absenteeism:"+from.Format(dateLayout), func(ctx context.Context) ([]kpi.MonthlyPoint, error) {
		records, err := s.attendance(ctx, models.KPIFilter{Since: &from})
		if err != nil {
			return nil, err
		}
		return kpi.MonthlyAbsenteeism(records, from), nil
	})
}

// TopStudents ranks students with at least minScores scores. A non-positive
// n uses the configured limit and a nil minScores the configured minimum;
// zero keeps every student with at least one score.
func (s *KPIService) TopStudents(ctx context.Context, n int, minScoresParam *int) ([]kpi.StudentRanking, bool, error) {
	if n <= 0 {
		n = s.cfg.TopLimit
	}
	minScores := s.cfg.MinScores
	if minScoresParam != nil {
		minScores = *minScoresParam
	}
	key := fmt.Sprintf("kpi:top-students:%d:%d", n, minScores)
	return cached(ctx, s, "top_students", key, func(ctx context.Context) ([]kpi.StudentRanking, error) {
		students, err := s.students(ctx)
		if err != nil {
			return nil, err
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return nil, err
		}
		return kpi.TopStudents(students, scores, n, minScores), nil
	})
}

// StudentAverages lists every active student with their average.
func (s *KPIService) StudentAverages(ctx context.Context) ([]kpi.StudentRanking, bool, error) {
	return cached(ctx, s, "student_averages", "kpi:student-averages", func(ctx context.Context) ([]kpi.StudentRanking, error) {
		students, err := s.students(ctx)
		if err != nil {
			return nil, err
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return nil, err
		}
		return kpi.StudentAverages(students, scores), nil
	})
}

// TeacherRanking ranks active teachers by the average of their courses.
func (s *KPIService) TeacherRanking(ctx context.Context, n int) ([]kpi.TeacherRanking, bool, error) {
	if n <= 0 {
		n = s.cfg.TopLimit
	}
	return cached(ctx, s, "teacher_ranking", fmt.Sprintf("kpi:teacher-ranking:%d", n), func(ctx context.Context) ([]kpi.TeacherRanking, error) {
		teachers, err := s.teachers(ctx)
		if err != nil {
			return nil, err
		}
		scores, err := s.scores(ctx, models.KPIFilter{})
		if err != nil {
			return nil, err
		}
		return kpi.TeacherRankings(teachers, scores, n), nil
	})
}

// AttendanceOn counts attendance per status for a date, today when nil.
func (s *KPIService) AttendanceOn(ctx context.Context, date *time.Time) (dto.AttendanceDayResponse, bool, error) {
	day := today(s.now())
	if date != nil {
		day = today(*date)
	}
	return cached(ctx, s, "attendance_day", "kpi:attendance:"+day.Format(dateLayout), func(ctx context.Context) (dto.AttendanceDayResponse, error) {
		records, err := s.attendance(ctx, models.KPIFilter{Since: &day})
		if err != nil {
			return dto.AttendanceDayResponse{}, err
		}
		return attendanceDay(records, day), nil
	})
}

// Dashboard composes every indicator from a single load of the facts.
func (s *KPIService) Dashboard(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	return cached(ctx, s, "dashboard", "kpi:dashboard", s.composeDashboard)
}

func (s *KPIService) composeDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	now := s.now().UTC()
	day := today(now)
	since := today(now.Add(-s.cfg.TrendWindow))

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, internalError(err, "failed to count entities")
	}
	students, err := s.students(ctx)
	if err != nil {
		return nil, err
	}
	teachers, err := s.teachers(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses(ctx)
	if err != nil {
		return nil, err
	}
	scores, err := s.scores(ctx, models.KPIFilter{})
	if err != nil {
		return nil, err
	}
	records, err := s.attendance(ctx, models.KPIFilter{})
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.UpcomingAssessments(ctx, day, day.AddDate(0, 0, s.cfg.UpcomingDays), s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load upcoming assessments")
	}
	recent, err := s.repo.RecentScores(ctx, s.cfg.RecentLimit)
	if err != nil {
		return nil, internalError(err, "failed to load recent scores")
	}

	return &dto.DashboardResponse{
		Summary:             kpi.Summarize(counts, scores),
		AtRisk:              dto.NewAtRiskResponse(kpi.AtRiskStudents(students, scores, records)),
		GradeDistribution:   kpi.GradeDistribution(scores),
		AttendanceToday:     attendanceDay(records, day),
		CourseAverages:      kpi.CourseAverages(courses, scores),
		CourseAbsenteeism:   kpi.CourseAbsenteeismList(courses, records),
		ScoreTrend:          kpi.MonthlyScoreTrend(scores, since),
		AbsenteeismTrend:    kpi.MonthlyAbsenteeism(records, since),
		TopStudents:         kpi.TopStudents(students, scores, s.cfg.TopLimit, s.cfg.MinScores),
		LowestStudents:      kpi.LowestStudents(students, scores, s.cfg.TopLimit),
		TeacherRanking:      kpi.TeacherRankings(teachers, scores, s.cfg.TopLimit),
		UpcomingAssessments: upcoming,
		RecentScores:        recent,
		GeneratedAt:         now,
	}, nil
}

func attendanceDay(records []kpi.AttendanceFact, day time.Time) dto.AttendanceDayResponse {
	statuses := kpi.AttendanceOn(records, day)
	total := 0
	for _, st := range statuses {
		total += st.Count
	}
	return dto.AttendanceDayResponse{Date: day.Format(dateLayout), Total: total, Statuses: statuses}
}

func (s *KPIService) since(value *time.Time) time.Time {
	if value != nil {
		return today(*value)
	}
	return today(s.now().Add(-s.cfg.TrendWindow))
}

func (s *KPIService) scores(ctx context.Context, filter models.KPIFilter) ([]kpi.ScoreFact, error) {
	start := time.Now()
	facts, err := s.repo.ScoreFacts(ctx, filter)
	s.metrics.ObserveDBQuery("score_facts", time.Since(start))
	if err != nil {
		return nil, internalError(err, "failed to load scores")
	}
	return facts, nil
}

func (s *KPIService) attendance(ctx context.Context, filter models.KPIFilter) ([]kpi.AttendanceFact, error) {
	start := time.Now()
	facts, err := s.repo.AttendanceFacts(ctx, filter)
	s.metrics.ObserveDBQuery("attendance_facts", time.Since(start))
	if err != nil {
		return nil, internalError(err, "failed to load attendance")
	}
	return facts, nil
}

func (s *KPIService) students(ctx context.Context) ([]kpi.StudentRef, error) {
	start := time.Now()
	students, err := s.repo.ActiveStudents(ctx)
	s.metrics.ObserveDBQuery("active_students", time.Since(start))
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	return students, nil
}

func (s *KPIService) teachers(ctx context.Context) ([]kpi.TeacherRef, error) {
	start := time.Now()
	teachers, err := s.repo.ActiveTeachers(ctx)
	s.metrics.ObserveDBQuery("active_teachers", time.Since(start))
	if err != nil {
		return nil, internalError(err, "failed to load teachers")
	}
	return teachers, nil
}

func (s *KPIService) courses(ctx context.Context) ([]kpi.CourseRef, error) {
	start := time.Now()
	courses, err := s.repo.Courses(ctx)
	s.metrics.ObserveDBQuery("courses", time.Since(start))
	if err != nil {
		return nil, internalError(err, "failed to load courses")
	}
	return courses, nil
}
