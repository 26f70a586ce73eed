package service

import (
	"context"
	"database/sql"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

// Lookup stubs shared by the write-path tests. A missing id yields
// sql.ErrNoRows, like the repositories.

type studentStub map[string]models.Student

func (s studentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s[id]; ok {
		return &st, nil
	}
	return nil, sql.ErrNoRows
}

type courseStub map[string]models.CourseDetail

func (s courseStub) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := s[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type assessmentStub map[string]models.AssessmentDetail

func (s assessmentStub) FindByID(ctx context.Context, id string) (*models.AssessmentDetail, error) {
	if a, ok := s[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

type guardianStub map[string]models.Guardian

func (s guardianStub) FindByID(ctx context.Context, id string) (*models.Guardian, error) {
	if g, ok := s[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

// enrollmentStub answers IsActive from "student|course" keys.
type enrollmentStub map[string]bool

func (s enrollmentStub) IsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	return s[studentID+"|"+courseID], nil
}

type finderStub[T any] map[string]T

func (s finderStub[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if v, ok := s[id]; ok {
		return &v, nil
	}
	return nil, sql.ErrNoRows
}
