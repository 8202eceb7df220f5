package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Raw record sources.
const (
	SourceMySQL = "mysql"
	SourceMongo = "mongo"
	SourceHTTP  = "http"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	RecordSource              string
	ShutdownTimeout           time.Duration
	Database                  DatabaseConfig
	Mongo                     MongoConfig
	Upstream                  UpstreamConfig
	Log                       LogConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// MongoConfig points the mongo record source at a database.
type MongoConfig struct {
	URI                    string
	Database               string
	AppointmentsCollection string
	PatientsCollection     string
	DoctorsCollection      string
	Timeout                time.Duration
}

// UpstreamConfig configures the REST record source.
type UpstreamConfig struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// LogConfig selects the zap level, encoding and sink.
type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:4200")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_REFRESH_SECRET", "default_refresh_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 15)
	v.SetDefault("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	v.SetDefault("RECORD_SOURCE", SourceMySQL)
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "hospital")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "hospital")
	v.SetDefault("MONGO_APPOINTMENTS_COLLECTION", "appointments")
	v.SetDefault("MONGO_PATIENTS_COLLECTION", "patients")
	v.SetDefault("MONGO_DOCTORS_COLLECTION", "doctors")
	v.SetDefault("MONGO_TIMEOUT", 10*time.Second)

	v.SetDefault("UPSTREAM_BASE_URL", "")
	v.SetDefault("UPSTREAM_TOKEN", "")
	v.SetDefault("UPSTREAM_TIMEOUT", 10*time.Second)
	v.SetDefault("UPSTREAM_BREAKER_FAILURES", 5)
	v.SetDefault("UPSTREAM_BREAKER_COOLDOWN", 30*time.Second)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")

	dbConfig := DatabaseConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	cfg := &Config{
		Port:                      v.GetString("PORT"),
		Origin:                    v.GetString("ORIGIN"),
		Environment:               v.GetString("APP_ENV"),
		JWTSecret:                 v.GetString("JWT_SECRET"),
		JWTRefreshSecret:          v.GetString("JWT_REFRESH_SECRET"),
		JWTExpirationMinutes:      v.GetInt("JWT_EXPIRATION_MINUTES"),
		JWTRefreshExpirationHours: v.GetInt("JWT_REFRESH_EXPIRATION_HOURS"),
		RecordSource:              strings.ToLower(v.GetString("RECORD_SOURCE")),
		ShutdownTimeout:           v.GetDuration("SHUTDOWN_TIMEOUT"),
		Database:                  dbConfig,
		Mongo: MongoConfig{
			URI:                    v.GetString("MONGO_URI"),
			Database:               v.GetString("MONGO_DATABASE"),
			AppointmentsCollection: v.GetString("MONGO_APPOINTMENTS_COLLECTION"),
			PatientsCollection:     v.GetString("MONGO_PATIENTS_COLLECTION"),
			DoctorsCollection:      v.GetString("MONGO_DOCTORS_COLLECTION"),
			Timeout:                v.GetDuration("MONGO_TIMEOUT"),
		},
		Upstream: UpstreamConfig{
			BaseURL:         strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
			Token:           v.GetString("UPSTREAM_TOKEN"),
			Timeout:         v.GetDuration("UPSTREAM_TIMEOUT"),
			BreakerFailures: v.GetUint32("UPSTREAM_BREAKER_FAILURES"),
			BreakerCooldown: v.GetDuration("UPSTREAM_BREAKER_COOLDOWN"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Environment == "development"
}

// Validate checks the configuration is usable and safe for its environment.
func (c *Config) Validate() error {
	var errs []string

	switch c.RecordSource {
	case SourceMySQL, SourceMongo:
	case SourceHTTP:
		if c.Upstream.BaseURL == "" {
			errs = append(errs, "UPSTREAM_BASE_URL is required when RECORD_SOURCE=http")
		}
	default:
		errs = append(errs, fmt.Sprintf("RECORD_SOURCE must be one of mysql, mongo, http; got %q", c.RecordSource))
	}

	if c.JWTExpirationMinutes <= 0 {
		errs = append(errs, "JWT_EXPIRATION_MINUTES must be positive")
	}
	if c.JWTRefreshExpirationHours <= 0 {
		errs = append(errs, "JWT_REFRESH_EXPIRATION_HOURS must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" || c.JWTSecret == "default_jwt_secret" {
			errs = append(errs, "JWT_SECRET must be set in production")
		}
		if c.JWTRefreshSecret == "" || c.JWTRefreshSecret == "default_refresh_secret" {
			errs = append(errs, "JWT_REFRESH_SECRET must be set in production")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
