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
	Env string

	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Cache     CacheConfig
	Metrics   MetricsConfig
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

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig tunes the session scheduling engine.
type SchedulerConfig struct {
	ConflictBuffer         time.Duration
	LeadTime               time.Duration
	MinSearchWeeks         int
	RescheduleWeeks        int
	DistributeSearchFactor int
	RescheduleLimit        int
	Timezone               string
}

// Location resolves the configured scheduling timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CacheConfig governs the commitment snapshot cache.
type CacheConfig struct {
	Enabled       bool
	CommitmentTTL time.Duration
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Addr string
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		ConflictBuffer:         parseDuration(v.GetString("CONFLICT_BUFFER"), 15*time.Minute),
		LeadTime:               parseDuration(v.GetString("SCHEDULER_LEAD_TIME"), 2*time.Hour),
		MinSearchWeeks:         positiveOr(v.GetInt("SCHEDULER_MIN_SEARCH_WEEKS"), 4),
		RescheduleWeeks:        positiveOr(v.GetInt("SCHEDULER_RESCHEDULE_WEEKS"), 12),
		DistributeSearchFactor: positiveOr(v.GetInt("SCHEDULER_DISTRIBUTE_SEARCH_FACTOR"), 3),
		RescheduleLimit:        positiveOr(v.GetInt("SCHEDULER_RESCHEDULE_LIMIT"), 10),
		Timezone:               v.GetString("SCHEDULER_TIMEZONE"),
	}

	cfg.Cache = CacheConfig{
		Enabled:       v.GetBool("ENABLE_COMMITMENT_CACHE"),
		CommitmentTTL: parseDuration(v.GetString("COMMITMENT_CACHE_TTL"), 30*time.Second),
	}

	cfg.Metrics = MetricsConfig{
		Addr: v.GetString("METRICS_ADDR"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sessions")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CONFLICT_BUFFER", "15m")
	v.SetDefault("SCHEDULER_LEAD_TIME", "2h")
	v.SetDefault("SCHEDULER_MIN_SEARCH_WEEKS", 4)
	v.SetDefault("SCHEDULER_RESCHEDULE_WEEKS", 12)
	v.SetDefault("SCHEDULER_DISTRIBUTE_SEARCH_FACTOR", 3)
	v.SetDefault("SCHEDULER_RESCHEDULE_LIMIT", 10)
	v.SetDefault("SCHEDULER_TIMEZONE", "UTC")

	v.SetDefault("ENABLE_COMMITMENT_CACHE", false)
	v.SetDefault("COMMITMENT_CACHE_TTL", "30s")

	v.SetDefault("METRICS_ADDR", "")
}

// isMissingFile reports a missing .env; viper returns a raw fs error when SetConfigFile is used.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || strings.Contains(err.Error(), "no such file or directory")
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
