package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/repository"
	"github.com/noah-isme/school-indicators-api/internal/service"
	"github.com/noah-isme/school-indicators-api/pkg/cache"
	"github.com/noah-isme/school-indicators-api/pkg/database"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

func newSeedCmd(a *app) *cobra.Command {
	var opts service.SeedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with realistic demo data",
		Long: "Generates grade levels, subjects, an academic period, teachers, students, guardians, " +
			"courses, enrollments, assessments, scores and the last 30 days of attendance. " +
			"Every row goes through the same validation as the API.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := database.NewPostgres(a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := buildSeedService(a, db).Run(cmd.Context(), opts)
			if err != nil {
				if !opts.Reset && isConflict(err) {
					return fmt.Errorf("%w (the database already holds data, rerun with --reset)", err)
				}
				return err
			}
			return printSeedReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "delete every existing row before seeding")
	cmd.Flags().IntVar(&opts.Students, "students", 30, "number of students to create")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed, 0 for a time based one")
	return cmd
}

func isConflict(err error) bool {
	for _, target := range []error{
		appErrors.ErrConflict, appErrors.ErrDuplicateEnrollment, appErrors.ErrDuplicateLink,
		appErrors.ErrDuplicateScore, appErrors.ErrDuplicateAttendance,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func buildSeedService(a *app, db *sqlx.DB) *service.SeedService {
	validate := service.NewValidator()
	cacheSvc := service.NewCacheService(nil, nil, a.cfg.KPI.CacheTTL, a.logger, false)
	if a.cfg.KPI.CacheEnabled {
		if client, err := cache.NewRedis(a.cfg.Redis); err != nil {
			a.logger.Warn("kpi cache unavailable, skipping invalidation", zap.Error(err))
		} else {
			cacheSvc = service.NewCacheService(repository.NewCacheRepository(client), nil, a.cfg.KPI.CacheTTL, a.logger, true)
		}
	}
	// Per-row invalidation is skipped; the seed service invalidates once at the end.
	noCache := service.NewCacheService(nil, nil, 0, a.logger, false)

	gradeLevels := repository.NewGradeLevelRepository(db)
	subjects := repository.NewSubjectRepository(db)
	periods := repository.NewAcademicPeriodRepository(db)
	teachers := repository.NewTeacherRepository(db)
	students := repository.NewStudentRepository(db)
	guardians := repository.NewGuardianRepository(db)
	courses := repository.NewCourseRepository(db)
	enrollments := repository.NewEnrollmentRepository(db)
	assessments := repository.NewAssessmentRepository(db)
	logr := a.logger.Named("seed")

	return service.NewSeedService(service.SeedTargets{
		GradeLevels: service.NewGradeLevelService(gradeLevels, validate, noCache, logr),
		Subjects:    service.NewSubjectService(subjects, validate, noCache, logr),
		Periods:     service.NewAcademicPeriodService(periods, validate, noCache, logr),
		Teachers:    service.NewTeacherService(teachers, validate, noCache, logr),
		Students:    service.NewStudentService(students, validate, noCache, logr),
		Guardians:   service.NewGuardianService(guardians, validate, noCache, logr),
		Courses: service.NewCourseService(service.CourseServiceParams{
			Courses:     courses,
			GradeLevels: gradeLevels,
			Subjects:    subjects,
			Teachers:    teachers,
			Periods:     periods,
			Validator:   validate,
			Cache:       noCache,
			Logger:      logr,
		}),
		Enrollments:   service.NewEnrollmentService(enrollments, students, courses, validate, noCache, logr),
		GuardianLinks: service.NewGuardianLinkService(repository.NewGuardianLinkRepository(db), students, guardians, validate, noCache, logr),
		Assessments:   service.NewAssessmentService(assessments, courses, validate, noCache, logr),
		Scores:        service.NewScoreService(repository.NewScoreRepository(db), assessments, students, enrollments, validate, noCache, logr),
		Attendance:    service.NewAttendanceService(repository.NewAttendanceRepository(db), students, courses, enrollments, validate, noCache, logr),
	}, repository.NewDatasetRepository(db), cacheSvc, logr)
}

func printSeedReport(w io.Writer, report *service.SeedReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if report.Deleted != nil {
		fmt.Fprintf(tw, "deleted\t%d\n", report.Deleted.Total())
	}
	for _, table := range service.SeedTables {
		fmt.Fprintf(tw, "%s\t%d\n", table, report.Created[table])
	}
	return tw.Flush()
}
