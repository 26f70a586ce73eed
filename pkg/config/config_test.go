package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.False(t, cfg.KPI.CacheEnabled)
	assert.Equal(t, 180*24*time.Hour, cfg.KPI.TrendWindow)
	assert.Equal(t, 5, cfg.KPI.TopLimit)
	assert.Equal(t, 3, cfg.KPI.MinScores)
	assert.Equal(t, "indicadores", cfg.ExternalDatabase.Name)
	assert.False(t, cfg.JWT.Enabled)
	assert.Equal(t, "./exports", cfg.Export.Dir)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENABLE_KPI_CACHE", "true")
	t.Setenv("KPI_CACHE_TTL", "90s")
	t.Setenv("KPI_TOP_LIMIT", "10")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("EXTERNAL_DB_HOST", "reports.internal")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KPI.CacheEnabled)
	assert.Equal(t, 90*time.Second, cfg.KPI.CacheTTL)
	assert.Equal(t, 10, cfg.KPI.TopLimit)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "reports.internal", cfg.ExternalDatabase.Host)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("not-a-duration", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
