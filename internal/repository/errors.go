package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// UniqueViolation reports the violated constraint when err comes from a
// PostgreSQL unique index.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
