package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-indicators-api/internal/models"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type scoreRepository interface {
	List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ScoreDetail, error)
	ExistsByPair(ctx context.Context, assessmentID, studentID, excludeID string) (bool, error)
	Create(ctx context.Context, score *models.Score) error
	Update(ctx context.Context, score *models.Score) error
	Delete(ctx context.Context, id string) (models.DeletedRows, error)
}

type assessmentFinder interface {
	FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error)
}

type enrollmentChecker interface {
	IsActive(ctx context.Context, studentID, courseID string) (bool, error)
}

// ScoreRequest records one student's result on one assessment.
type ScoreRequest struct {
	AssessmentID string   `json:"assessment_id" validate:"required"`
	StudentID    string   `json:"student_id" validate:"required"`
	Value        *float64 `json:"value" validate:"required"`
	Notes        *string  `json:"notes" validate:"omitempty,max=1000"`
}

var scoreConstraints = map[string]error{
	"scores_assessment_student_key": appErrors.ErrDuplicateScore,
}

// ScoreService records assessment results.
type ScoreService struct {
	writer
	repo        scoreRepository
	assessments assessmentFinder
	students    studentFinder
	enrollments enrollmentChecker
}

// NewScoreService constructs a ScoreService.
func NewScoreService(repo scoreRepository, assessments assessmentFinder, students studentFinder, enrollments enrollmentChecker, validate *validator.Validate, cache cacheInvalidator, logger *zap.Logger) *ScoreService {
	return &ScoreService{
		writer:      newWriter(validate, cache, logger),
		repo:        repo,
		assessments: assessments,
		students:    students,
		enrollments: enrollments,
	}
}

// List returns score details plus pagination data.
func (s *ScoreService) List(ctx context.Context, filter models.ScoreFilter) ([]models.ScoreDetail, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list scores")
	}
	return items, paginate(filter.ListOptions, total), nil
}

// Get returns a score detail by id.
func (s *ScoreService) Get(ctx context.Context, id string) (*models.ScoreDetail, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "score")
	}
	return item, nil
}

// Record stores a score. The value range is checked before any lookup and
// nothing is written when a rule fails.
func (s *ScoreService) Record(ctx context.Context, req ScoreRequest) (*models.ScoreDetail, error) {
	if err := s.check(ctx, req, ""); err != nil {
		return nil, err
	}
	score := &models.Score{
		AssessmentID: req.AssessmentID,
		StudentID:    req.StudentID,
		Value:        *req.Value,
		Notes:        normalizeOptional(req.Notes),
	}
	if err := s.repo.Create(ctx, score); err != nil {
		return nil, writeError(err, "failed to record score", scoreConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, score.ID)
}

// Update revalidates and modifies a score.
func (s *ScoreService) Update(ctx context.Context, id string, req ScoreRequest) (*models.ScoreDetail, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "score")
	}
	if err := s.check(ctx, req, id); err != nil {
		return nil, err
	}
	score := existing.Score
	score.AssessmentID = req.AssessmentID
	score.StudentID = req.StudentID
	score.Value = *req.Value
	score.Notes = normalizeOptional(req.Notes)
	if err := s.repo.Update(ctx, &score); err != nil {
		return nil, writeError(err, "failed to update score", scoreConstraints)
	}
	s.changed(ctx)
	return s.Get(ctx, id)
}

// Delete removes a score.
func (s *ScoreService) Delete(ctx context.Context, id string) (models.DeletedRows, error) {
	rows, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, deleteError(err, "score")
	}
	s.deleted(ctx, "score", id, rows)
	return rows, nil
}

func (s *ScoreService) check(ctx context.Context, req ScoreRequest, excludeID string) error {
	if err := s.validate(req, "score"); err != nil {
		return err
	}
	if *req.Value < models.MinScoreValue || *req.Value > models.MaxScoreValue {
		return appErrors.WithField(appErrors.ErrOutOfRange, "value",
			fmt.Sprintf("score must be between %.0f and %.0f", models.MinScoreValue, models.MaxScoreValue))
	}
	assessment, err := s.assessments.FindByID(ctx, req.AssessmentID)
	if err != nil {
		return referenceError(err, "assessment", "assessment_id")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return referenceError(err, "student", "student_id")
	}
	enrolled, err := s.enrollments.IsActive(ctx, req.StudentID, assessment.CourseID)
	if err != nil {
		return internalError(err, "failed to check enrollment")
	}
	if !enrolled {
		return appErrors.WithField(appErrors.ErrNotEnrolled, "student_id", "student not enrolled in the assessment's course")
	}
	exists, err := s.repo.ExistsByPair(ctx, req.AssessmentID, req.StudentID, excludeID)
	if err != nil {
		return internalError(err, "failed to check score uniqueness")
	}
	if exists {
		return appErrors.ErrDuplicateScore
	}
	return nil
}
