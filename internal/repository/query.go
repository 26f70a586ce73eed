package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/school-indicators-api/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// conditions accumulates WHERE fragments with positional arguments.
type conditions struct {
	parts []string
	args  []interface{}
}

// add appends a fragment. Every %[1]d in format is replaced with the
// placeholder index assigned to value.
func (c *conditions) add(format string, value interface{}) {
	c.args = append(c.args, value)
	c.parts = append(c.parts, fmt.Sprintf(format, len(c.args)))
}

// likeEscaper neutralises LIKE wildcards in user input.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// search matches term as a literal substring of any column, ignoring case.
func (c *conditions) search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	ors := make([]string, len(columns))
	for i, col := range columns {
		ors[i] = fmt.Sprintf(`LOWER(%s) LIKE $%%[1]d ESCAPE '\'`, col)
	}
	c.add("("+strings.Join(ors, " OR ")+")", "%"+likeEscaper.Replace(strings.ToLower(term))+"%")
}

func (c *conditions) clause() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " AND " + strings.Join(c.parts, " AND ")
}

// window resolves LIMIT and OFFSET from list options.
func window(opts models.ListOptions) (int, int) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	size := opts.PageSize
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return size, (page - 1) * size
}

// ordering returns the ORDER BY expression. An allowed sort column wins over
// the resource's default ordering.
func ordering(opts models.ListOptions, allowed map[string]string, fallback string) string {
	column, ok := allowed[opts.SortBy]
	if !ok {
		return fallback
	}
	order := strings.ToUpper(opts.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	return column + " " + order
}
