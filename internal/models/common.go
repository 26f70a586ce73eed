package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole represents the roles carried in access tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleViewer  UserRole = "VIEWER"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleTeacher || r == RoleViewer
}

// JWTClaims represents the payload of externally issued access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ListOptions carries paging and sorting shared by every list filter.
type ListOptions struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// FullName joins given names and surnames the way rosters display them.
func FullName(firstNames, lastNames string) string {
	return strings.TrimSpace(strings.TrimSpace(firstNames) + " " + strings.TrimSpace(lastNames))
}

// DeletedRows counts removed rows per table for a cascading delete.
type DeletedRows map[string]int64

// Total sums the removed rows across tables.
func (d DeletedRows) Total() int64 {
	var total int64
	for _, n := range d {
		total += n
	}
	return total
}
