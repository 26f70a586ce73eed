package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-indicators-api/pkg/errors"
)

type fakeIndicatorRepo struct {
	pingErr error
	exists  bool
	tables  []string
	limit   int
}

func (f *fakeIndicatorRepo) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeIndicatorRepo) TableExists(ctx context.Context, table string) (bool, error) {
	return f.exists, nil
}

func (f *fakeIndicatorRepo) PublicTables(ctx context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeIndicatorRepo) Sample(ctx context.Context, table string, limit int) ([]string, []map[string]string, error) {
	f.limit = limit
	return []string{"indicador", "valor"}, []map[string]string{{"indicador": "matricula", "valor": "120"}}, nil
}

func TestIndicatorServiceProbeSamples(t *testing.T) {
	repo := &fakeIndicatorRepo{exists: true}
	sample, err := NewIndicatorService(repo, nil).Probe(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, sample.Exists)
	assert.Equal(t, []string{"indicador", "valor"}, sample.Columns)
	assert.Len(t, sample.Rows, 1)
	assert.Equal(t, 10, repo.limit)
}

func TestIndicatorServiceProbeMissingTable(t *testing.T) {
	repo := &fakeIndicatorRepo{tables: []string{"alumnos", "cursos"}}
	sample, err := NewIndicatorService(repo, nil).Probe(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, sample.Exists)
	assert.Equal(t, []string{"alumnos", "cursos"}, sample.OtherTables)
	assert.Zero(t, repo.limit)
}

func TestIndicatorServiceProbeUnreachable(t *testing.T) {
	_, err := NewIndicatorService(&fakeIndicatorRepo{pingErr: errors.New("refused")}, nil).Probe(context.Background(), 5)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
