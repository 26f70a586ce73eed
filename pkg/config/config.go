package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env            string
	Port           int
	APIPrefix      string
	MigrateOnStart bool

	Database         DatabaseConfig
	ExternalDatabase DatabaseConfig
	Redis            RedisConfig
	JWT              JWTConfig
	CORS             CORSConfig
	Log              LogConfig
	KPI              KPIConfig
	Export           ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds verification settings for externally issued access tokens.
type JWTConfig struct {
	Enabled  bool
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// KPIConfig tunes indicator computation and the optional result cache.
type KPIConfig struct {
	CacheEnabled   bool
	CacheTTL       time.Duration
	TrendWindow    time.Duration
	TopLimit       int
	MinScores      int
	UpcomingWindow time.Duration
	RecentLimit    int
}

// ExportConfig controls rendered report output.
type ExportConfig struct {
	Title string
	Dir   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.MigrateOnStart = v.GetBool("MIGRATE_ON_START")

	cfg.Database = loadDatabase(v, "DB")
	cfg.ExternalDatabase = loadDatabase(v, "EXTERNAL_DB")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Enabled:  v.GetBool("ENABLE_AUTH"),
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.KPI = KPIConfig{
		CacheEnabled:   v.GetBool("ENABLE_KPI_CACHE"),
		CacheTTL:       parseDuration(v.GetString("KPI_CACHE_TTL"), 5*time.Minute),
		TrendWindow:    parseDuration(v.GetString("KPI_TREND_WINDOW"), 180*24*time.Hour),
		TopLimit:       positiveOr(v.GetInt("KPI_TOP_LIMIT"), 5),
		MinScores:      positiveOr(v.GetInt("KPI_MIN_SCORES"), 3),
		UpcomingWindow: parseDuration(v.GetString("KPI_UPCOMING_WINDOW"), 7*24*time.Hour),
		RecentLimit:    positiveOr(v.GetInt("KPI_RECENT_LIMIT"), 5),
	}

	cfg.Export = ExportConfig{
		Title: v.GetString("EXPORT_TITLE"),
		Dir:   v.GetString("EXPORT_DIR"),
	}

	return cfg, nil
}

func loadDatabase(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString(prefix + "_HOST"),
		Port:         v.GetInt(prefix + "_PORT"),
		User:         v.GetString(prefix + "_USER"),
		Password:     v.GetString(prefix + "_PASSWORD"),
		Name:         v.GetString(prefix + "_NAME"),
		SSLMode:      v.GetString(prefix + "_SSL_MODE"),
		MaxOpenConns: v.GetInt(prefix + "_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt(prefix + "_MAX_IDLE_CONNS"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("MIGRATE_ON_START", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_indicators")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("EXTERNAL_DB_HOST", "localhost")
	v.SetDefault("EXTERNAL_DB_PORT", 5432)
	v.SetDefault("EXTERNAL_DB_USER", "postgres")
	v.SetDefault("EXTERNAL_DB_PASSWORD", "postgres")
	v.SetDefault("EXTERNAL_DB_NAME", "indicadores")
	v.SetDefault("EXTERNAL_DB_SSL_MODE", "disable")
	v.SetDefault("EXTERNAL_DB_MAX_OPEN_CONNS", 2)
	v.SetDefault("EXTERNAL_DB_MAX_IDLE_CONNS", 1)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_KPI_CACHE", false)
	v.SetDefault("KPI_CACHE_TTL", "5m")
	v.SetDefault("KPI_TREND_WINDOW", "4320h")
	v.SetDefault("KPI_TOP_LIMIT", 5)
	v.SetDefault("KPI_MIN_SCORES", 3)
	v.SetDefault("KPI_UPCOMING_WINDOW", "168h")
	v.SetDefault("KPI_RECENT_LIMIT", 5)

	v.SetDefault("EXPORT_TITLE", "Students at academic risk")
	v.SetDefault("EXPORT_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
