package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Review ReviewConfig
}

type AppConfig struct {
	Port              string
	Env               string
	LogLevel          string
	CORSAllowedOrigin string
}

type DBConfig struct {
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	MigrateOnStartup bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig only verifies tokens; issuing them belongs to the identity service.
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

type ReviewConfig struct {
	RatingCacheTTL      time.Duration
	LockCleanupInterval time.Duration
	LockStaleThreshold  time.Duration
	DefaultPageSize     int
	MaxPageSize         int
	RecentReviewsLimit  int
}

const envFile = ".env"

func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	// .env is optional; containers usually pass plain environment variables.
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:              v.GetString("APP_PORT"),
			Env:               v.GetString("APP_ENV"),
			LogLevel:          v.GetString("LOG_LEVEL"),
			CORSAllowedOrigin: v.GetString("CORS_ALLOWED_ORIGIN"),
		},
		DB: DBConfig{
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetString("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Name:             v.GetString("DB_NAME"),
			SSLMode:          v.GetString("DB_SSLMODE"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			MigrateOnStartup: v.GetBool("DB_MIGRATE_ON_STARTUP"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: durationOr(v, "JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Review: ReviewConfig{
			RatingCacheTTL:      durationOr(v, "RATING_CACHE_TTL", 10*time.Minute),
			LockCleanupInterval: durationOr(v, "LOCK_CLEANUP_INTERVAL", 10*time.Minute),
			LockStaleThreshold:  durationOr(v, "LOCK_STALE_THRESHOLD", 10*time.Minute),
			DefaultPageSize:     v.GetInt("REVIEW_PAGE_SIZE_DEFAULT"),
			MaxPageSize:         v.GetInt("REVIEW_PAGE_SIZE_MAX"),
			RecentReviewsLimit:  v.GetInt("REVIEW_RECENT_LIMIT"),
		},
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGIN", "*")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "doctor_review")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MIGRATE_ON_STARTUP", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("REVIEW_PAGE_SIZE_DEFAULT", 20)
	v.SetDefault("REVIEW_PAGE_SIZE_MAX", 100)
	v.SetDefault("REVIEW_RECENT_LIMIT", 3)
}

// durationOr keeps the fallback when the value is missing or unparsable.
func durationOr(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
