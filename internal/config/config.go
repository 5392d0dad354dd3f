package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret string
	JWTExpiry time.Duration

	// Admin
	AdminEmails       string
	AdminPasswordHash string
	AdminName         string

	// Server
	Port                   string
	CORSOrigins            string
	RateLimitPerMinute     int
	AuthRateLimitPerMinute int
	ReadTimeout            time.Duration
	WriteTimeout           time.Duration

	// Attachments
	StorageDriver      string
	StoragePath        string
	S3Bucket           string
	S3Region           string
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	S3PresignTTL       time.Duration
	PublicFilesBaseURL string
	MaxUploadBytes     int

	// Reports
	StrictStatusLifecycle bool

	// Logging
	LogRetentionDays int

	// Sentry
	SentryDSN string
	AppEnv    string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "laudos"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "12h"), 12*time.Hour),

		AdminEmails:       getEnv("ADMIN_EMAILS", "admin@labanalytica.com"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminName:         getEnv("ADMIN_NAME", "Administrador"),

		Port:                   getEnv("PORT", "8080"),
		CORSOrigins:            getEnv("CORS_ORIGINS", "*"),
		RateLimitPerMinute:     parseInt(getEnv("RATE_LIMIT_PER_MINUTE", "120"), 120),
		AuthRateLimitPerMinute: parseInt(getEnv("AUTH_RATE_LIMIT_PER_MINUTE", "10"), 10),
		ReadTimeout:            parseDuration(getEnv("READ_TIMEOUT", "30s"), 30*time.Second),
		WriteTimeout:           parseDuration(getEnv("WRITE_TIMEOUT", "30s"), 30*time.Second),

		StorageDriver:      getEnv("STORAGE_DRIVER", "fs"),
		StoragePath:        getEnv("STORAGE_PATH", "uploads"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PresignTTL:       parseDuration(getEnv("S3_PRESIGN_TTL", "15m"), 15*time.Minute),
		PublicFilesBaseURL: strings.TrimRight(getEnv("PUBLIC_FILES_BASE_URL", ""), "/"),
		MaxUploadBytes:     parseInt(getEnv("MAX_UPLOAD_BYTES", "10485760"), 10*1024*1024),

		StrictStatusLifecycle: parseBool(getEnv("STRICT_STATUS_LIFECYCLE", "false")),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		AppEnv:    getEnv("APP_ENV", "development"),
	}
}

// Validate reports the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	switch c.StorageDriver {
	case "fs":
	case "s3":
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
		}
	default:
		errs = append(errs, errors.New("STORAGE_DRIVER must be fs or s3"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// AdminEmailList returns the configured admin emails, lower-cased.
func (c *Config) AdminEmailList() []string {
	if c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(p))
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
