package configs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"

	"hostelfee_backend/internals/helpers/logger"
)

var (
	JWTSecret string
)

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			logger.Log.Warn("⚠️ .env file not found, using system ENV")
		} else {
			logger.Log.Info("✅ .env file loaded")
		}
	} else {
		logger.Log.Info("🚀 Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	if JWTSecret == "" {
		logger.Log.Error("❌ JWT_SECRET is not set!")
	} else {
		logger.Log.Info("✅ JWT_SECRET loaded.")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

// =======================
// ENGINE SETTINGS
// =======================

// Settings holds the typed knobs of the fee ledger engine.
type Settings struct {
	Port     string
	LogLevel string
	LogJSON  bool
	Timezone string

	DueDateCacheTTL       time.Duration
	CacheSweepSchedule    string
	CatalogCacheTTL       time.Duration
	AggregateConcurrency  int
	RecomputeDebounce     time.Duration
	StatsStudentLimit     int
	CohortPaymentLimit    int
	DuplicatePaymentAfter time.Duration
}

func settingsDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("DUE_DATE_CACHE_TTL", 30*time.Minute)
	v.SetDefault("CACHE_SWEEP_CRON", "@every 10m")
	v.SetDefault("CATALOG_CACHE_TTL", 10*time.Minute)
	v.SetDefault("AGGREGATE_CONCURRENCY", 8)
	v.SetDefault("RECOMPUTE_DEBOUNCE", 2*time.Second)
	v.SetDefault("STATS_STUDENT_LIMIT", 5000)
	v.SetDefault("COHORT_PAYMENT_LIMIT", 10000)
	v.SetDefault("DUPLICATE_PAYMENT_WINDOW", 2*time.Minute)
}

// LoadSettings reads settings from the environment, falling back to defaults.
// Call after LoadEnv so values from .env are visible.
func LoadSettings() Settings {
	v := viper.New()
	v.AutomaticEnv()
	settingsDefaults(v)

	s := Settings{
		Port:                  v.GetString("PORT"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		LogJSON:               v.GetString("LOG_FORMAT") == "json",
		Timezone:              v.GetString("APP_TIMEZONE"),
		DueDateCacheTTL:       v.GetDuration("DUE_DATE_CACHE_TTL"),
		CacheSweepSchedule:    v.GetString("CACHE_SWEEP_CRON"),
		CatalogCacheTTL:       v.GetDuration("CATALOG_CACHE_TTL"),
		AggregateConcurrency:  v.GetInt("AGGREGATE_CONCURRENCY"),
		RecomputeDebounce:     v.GetDuration("RECOMPUTE_DEBOUNCE"),
		StatsStudentLimit:     v.GetInt("STATS_STUDENT_LIMIT"),
		CohortPaymentLimit:    v.GetInt("COHORT_PAYMENT_LIMIT"),
		DuplicatePaymentAfter: v.GetDuration("DUPLICATE_PAYMENT_WINDOW"),
	}
	if s.AggregateConcurrency < 1 {
		s.AggregateConcurrency = 1
	}
	return s
}

// Location returns the configured timezone, UTC when it cannot be loaded.
func (s Settings) Location() *time.Location {
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// =======================
// DATABASE DSN
// =======================
func PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=hostelfee&options=-c statement_timeout=3000",
		GetEnv("DB_USER"),
		GetEnv("DB_PASSWORD"),
		GetEnv("DB_HOST"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_NAME"),
		GetEnv("DB_SSLMODE", "require"),
	)
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
	log           logrus.FieldLogger
}

func NewGormLogger() gormLogger.Interface {
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      gormLogger.Warn,
		log:           logger.Log.WithField("component", "gorm"),
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.log.Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.log.Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.log.Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.log.WithFields(logrus.Fields{
		"file":    utils.FileWithLineNum(),
		"elapsed": elapsed.String(),
		"rows":    rows,
	})

	switch {
	case err != nil && l.LogLevel >= gormLogger.Error:
		entry.WithError(err).Errorf("[QUERY] %s", sql)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		entry.Warnf("[SLOW SQL] %s", sql)
	case l.LogLevel >= gormLogger.Info:
		entry.Debugf("[QUERY] %s", sql)
	}
}
