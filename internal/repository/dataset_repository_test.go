package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

func TestResetOrderCoversEveryRoot(t *testing.T) {
	owned := map[string]bool{}
	for _, deps := range ownership {
		for _, dep := range deps {
			owned[dep.table] = true
		}
	}
	var roots []string
	for table := range ownership {
		if !owned[table] {
			roots = append(roots, table)
		}
	}
	assert.ElementsMatch(t, roots, resetOrder)
}

func TestDatasetResetWalksOwnership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewDatasetRepository(db)

	ids := func(values ...string) *sqlmock.Rows {
		rows := sqlmock.NewRows([]string{"id"})
		for _, v := range values {
			rows.AddRow(v)
		}
		return rows
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students")).WillReturnRows(ids("s1", "s2"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scores WHERE student_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 6))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE student_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 8))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM guardian_links WHERE student_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM guardians")).WillReturnRows(ids())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM teachers")).WillReturnRows(ids("t1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM courses WHERE teacher_id = ANY($1)")).WillReturnRows(ids("c1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE course_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM assessments WHERE course_id = ANY($1)")).WillReturnRows(ids())
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance_records WHERE course_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE teacher_id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers WHERE id = ANY($1)")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM academic_periods")).WillReturnRows(ids())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM subjects")).WillReturnRows(ids())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM grade_levels")).WillReturnRows(ids())
	mock.ExpectCommit()

	deleted, err := repo.Reset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DeletedRows{
		"enrollments": 4, "scores": 6, "attendance_records": 8, "guardian_links": 1,
		"students": 2, "courses": 1, "teachers": 1,
	}, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetResetRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := NewDatasetRepository(db).Reset(context.Background())
	assert.ErrorContains(t, err, "select students")
	assert.NoError(t, mock.ExpectationsWereMet())
}
