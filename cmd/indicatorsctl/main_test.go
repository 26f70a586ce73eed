package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-indicators-api/internal/models"
	"github.com/noah-isme/school-indicators-api/internal/service"
	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate"}, {"probe"}, {"export", "at-risk"}, {"export", "prune"}, {"seed"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestMigrateArgs(t *testing.T) {
	cmd := newMigrateCmd(&app{})
	assert.NoError(t, cmd.Args(cmd, []string{"status"}))
	assert.Error(t, cmd.Args(cmd, []string{"sideways"}))
	assert.Error(t, cmd.Args(cmd, nil))
}

func TestSeedFlags(t *testing.T) {
	cmd := newSeedCmd(&app{})
	require.NoError(t, cmd.ParseFlags([]string{"--reset", "--students", "12", "--seed", "42"}))

	reset, err := cmd.Flags().GetBool("reset")
	require.NoError(t, err)
	assert.True(t, reset)
	students, err := cmd.Flags().GetInt("students")
	require.NoError(t, err)
	assert.Equal(t, 12, students)
	seed, err := cmd.Flags().GetInt64("seed")
	require.NoError(t, err)
	assert.Equal(t, int64(42), seed)

	assert.Error(t, cmd.Args(cmd, []string{"extra"}))
	assert.Equal(t, "30", newSeedCmd(&app{}).Flags().Lookup("students").DefValue)
}

func TestIsConflict(t *testing.T) {
	assert.True(t, isConflict(fmt.Errorf("seed people: %w", appErrors.ErrConflict)))
	assert.True(t, isConflict(fmt.Errorf("seed courses: %w", appErrors.ErrDuplicateEnrollment)))
	assert.False(t, isConflict(fmt.Errorf("seed people: %w", appErrors.ErrInternal)))
}

func TestPrintSeedReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSeedReport(&buf, &service.SeedReport{
		Deleted: models.DeletedRows{"students": 3, "scores": 9},
		Created: map[string]int{"grade_levels": 6, "students": 12},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(service.SeedTables)+1)
	assert.Equal(t, "deleted", strings.Fields(lines[0])[0])
	assert.Equal(t, "12", strings.Fields(lines[0])[1])
	assert.Equal(t, []string{"grade_levels", "6"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"attendance_records", "0"}, strings.Fields(lines[len(lines)-1]))

	buf.Reset()
	require.NoError(t, printSeedReport(&buf, &service.SeedReport{Created: map[string]int{}}))
	assert.NotContains(t, buf.String(), "deleted")
}

func TestPrintSample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSample(&buf, &models.IndicatorSample{
		Table:   "indicadores_educativos",
		Exists:  true,
		Columns: []string{"indicador", "valor"},
		Rows:    []map[string]string{{"indicador": "matricula", "valor": "120"}},
	}))
	assert.Contains(t, buf.String(), "table indicadores_educativos: 1 sample rows")
	assert.Contains(t, buf.String(), "matricula  120")

	buf.Reset()
	require.NoError(t, printSample(&buf, &models.IndicatorSample{Table: "indicadores_educativos", OtherTables: []string{"alumnos"}}))
	assert.Equal(t, "table indicadores_educativos not found\npublic tables:\n  alumnos\n", buf.String())
}

func TestWriteReport(t *testing.T) {
	result := &service.ExportResult{Filename: "at_risk_20240615_083000.csv", Payload: []byte("student\n")}

	var stdout bytes.Buffer
	path, err := writeReport(&stdout, "-", result)
	require.NoError(t, err)
	assert.Equal(t, "stdout", path)
	assert.Equal(t, "student\n", stdout.String())

	dir := t.TempDir()
	path, err = writeReport(&stdout, dir, result)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, result.Filename), path)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Payload, written)

	explicit := filepath.Join(dir, "report.csv")
	path, err = writeReport(&stdout, explicit, result)
	require.NoError(t, err)
	assert.Equal(t, explicit, path)
}
