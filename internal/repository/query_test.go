package repository

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

func TestConditionsPlaceholders(t *testing.T) {
	var cond conditions
	cond.add("a.course_id = $%[1]d", "c1")
	cond.search("  Ana ", "first_names", "last_names")
	cond.search("   ", "ignored")

	assert.Equal(t, ` AND a.course_id = $1 AND (LOWER(first_names) LIKE $2 ESCAPE '\' OR LOWER(last_names) LIKE $2 ESCAPE '\')`, cond.clause())
	assert.Equal(t, []interface{}{"c1", "%ana%"}, cond.args)

	var empty conditions
	assert.Equal(t, "", empty.clause())
}

func TestSearchEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"_":       `%\_%`,
		"100%":    `%100\%%`,
		`a\b`:     `%a\\b%`,
		"O'Neill": "%o'neill%",
	}
	for term, want := range cases {
		var cond conditions
		cond.search(term, "name")
		assert.Equal(t, []interface{}{want}, cond.args, term)
	}
}

func TestWindowAndOrdering(t *testing.T) {
	limit, offset := window(models.ListOptions{Page: 3, PageSize: 500})
	assert.Equal(t, defaultPageSize, limit)
	assert.Equal(t, 40, offset)

	allowed := map[string]string{"name": "g.name"}
	assert.Equal(t, "g.name DESC", ordering(models.ListOptions{SortBy: "name", SortOrder: "desc"}, allowed, "fallback"))
	assert.Equal(t, "g.name ASC", ordering(models.ListOptions{SortBy: "name", SortOrder: "sideways"}, allowed, "fallback"))
	assert.Equal(t, "fallback", ordering(models.ListOptions{SortBy: "name; DROP TABLE"}, allowed, "fallback"))
}

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("create enrollment: %w", &pq.Error{Code: "23505", Constraint: "enrollments_student_course_key"})
	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "enrollments_student_course_key", constraint)

	_, ok = UniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueViolation(nil)
	assert.False(t, ok)
}
