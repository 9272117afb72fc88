package config

import (
	"errors"
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
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Scheduling SchedulingConfig
	Expiry     ExpiryConfig
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	SlotCache    bool
	SlotCacheTTL time.Duration
}

// JWTConfig holds the shared secret used to verify tokens minted by the auth service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulingConfig tunes slot materialisation and booking intake.
type SchedulingConfig struct {
	Timezone              string
	GranularityMinutes    int
	HorizonDays           int
	MaxHorizonDays        int
	ExpiryLead            time.Duration
	RescheduleAutoApprove bool
	MaxSessionMinutes     int
}

// ExpiryConfig governs the background sweep of stale booking requests.
type ExpiryConfig struct {
	Enabled  bool
	Interval time.Duration
	Retries  int
}

// Location resolves the configured scheduling timezone, falling back to UTC.
func (c SchedulingConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
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

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:         v.GetString("REDIS_HOST"),
		Port:         v.GetInt("REDIS_PORT"),
		Password:     v.GetString("REDIS_PASSWORD"),
		DB:           v.GetInt("REDIS_DB"),
		PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
		DialTimeout:  parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 0),
		SlotCache:    v.GetBool("ENABLE_SLOT_CACHE"),
		SlotCacheTTL: parseDuration(v.GetString("SLOT_CACHE_TTL"), time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		MaxAge:         parseDuration(v.GetString("CORS_MAX_AGE"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduling = SchedulingConfig{
		Timezone:              v.GetString("SCHEDULING_TIMEZONE"),
		GranularityMinutes:    positiveOr(v.GetInt("SLOT_GRANULARITY_MINUTES"), 60),
		HorizonDays:           positiveOr(v.GetInt("SLOT_HORIZON_DAYS"), 14),
		MaxHorizonDays:        positiveOr(v.GetInt("SLOT_MAX_HORIZON_DAYS"), 90),
		ExpiryLead:            parseDuration(v.GetString("BOOKING_EXPIRY_LEAD"), 3*time.Hour),
		RescheduleAutoApprove: v.GetBool("RESCHEDULE_AUTO_APPROVE"),
		MaxSessionMinutes:     positiveOr(v.GetInt("MAX_SESSION_MINUTES"), 480),
	}

	cfg.Expiry = ExpiryConfig{
		Enabled:  v.GetBool("ENABLE_EXPIRY_SCANNER"),
		Interval: parseDuration(v.GetString("EXPIRY_SWEEP_INTERVAL"), 5*time.Minute),
		Retries:  positiveOr(v.GetInt("EXPIRY_SWEEP_RETRIES"), 3),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "edu_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "")
	v.SetDefault("ENABLE_SLOT_CACHE", false)
	v.SetDefault("SLOT_CACHE_TTL", "1m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_MAX_AGE", "10m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULING_TIMEZONE", "UTC")
	v.SetDefault("SLOT_GRANULARITY_MINUTES", 60)
	v.SetDefault("SLOT_HORIZON_DAYS", 14)
	v.SetDefault("SLOT_MAX_HORIZON_DAYS", 90)
	v.SetDefault("BOOKING_EXPIRY_LEAD", "3h")
	v.SetDefault("RESCHEDULE_AUTO_APPROVE", true)
	v.SetDefault("MAX_SESSION_MINUTES", 480)

	v.SetDefault("ENABLE_EXPIRY_SCANNER", true)
	v.SetDefault("EXPIRY_SWEEP_INTERVAL", "5m")
	v.SetDefault("EXPIRY_SWEEP_RETRIES", 3)
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

func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
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
