package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Adapter types for the Postgres connection.
const (
	AdapterPGX  = "pgx"
	AdapterSQL  = "sql"
	AdapterSQLX = "sqlx"
)

var (
	// ErrUnknownAdapterType is returned when postgres.adapter is not one of pgx, sql, sqlx.
	ErrUnknownAdapterType = errors.New("unknown postgres adapter type")

	// ErrMissingDSN is returned when no postgres DSN is configured.
	ErrMissingDSN = errors.New("postgres dsn must not be empty")

	// ErrMissingSMTPHost is returned when no SMTP host is configured.
	ErrMissingSMTPHost = errors.New("smtp host must not be empty")

	// ErrMissingSender is returned when no sender address is configured.
	ErrMissingSender = errors.New("smtp sender must not be empty")

	// ErrMissingSchedule is returned when no cron schedule is configured.
	ErrMissingSchedule = errors.New("overdue schedule must not be empty")
)

// AppConfig is the complete configuration of the overdue notifier.
type AppConfig struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	Redis         RedisConfig         `yaml:"redis"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Overdue       OverdueConfig       `yaml:"overdue"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig selects the driver and connection of the lending stores.
type PostgresConfig struct {
	Adapter         string        `yaml:"adapter"`
	DSN             string        `yaml:"dsn"`
	ReplicaDSN      string        `yaml:"replica_dsn"`
	MaxConnections  int32         `yaml:"max_connections"`
	MinConnections  int32         `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	Migrate         bool          `yaml:"migrate"`
	BookTable       string        `yaml:"book_table"`
	LoanTable       string        `yaml:"loan_table"`
}

// RedisConfig configures the optional book lookup cache.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// SMTPConfig configures the mail notifier.
type SMTPConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Sender      string        `yaml:"sender"`
	Subject     string        `yaml:"subject"`
	TLS         bool          `yaml:"tls"`
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
}

// OverdueConfig configures the overdue scan.
type OverdueConfig struct {
	ThresholdDays int    `yaml:"threshold_days"`
	Message       string `yaml:"message"`
	Schedule      string `yaml:"schedule"`
	RunOnStart    bool   `yaml:"run_on_start"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig switches OpenTelemetry metrics, tracing and log correlation on.
type ObservabilityConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"service_name"`
	TraceEndpoint  string `yaml:"trace_endpoint"`
	MetricEndpoint string `yaml:"metric_endpoint"`
}

// DefaultAppConfig returns the configuration used for every value missing in the YAML file.
// It has no postgres DSN, so a config file must always name the database.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Postgres: PostgresConfig{
			Adapter:         AdapterPGX,
			MaxConnections:  8,
			MinConnections:  2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 5 * time.Minute,
			ConnectTimeout:  5 * time.Second,
			Migrate:         true,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			TTL:     10 * time.Minute,
		},
		SMTP: SMTPConfig{
			Host:        "localhost",
			Port:        1025,
			Sender:      "library@example.com",
			Subject:     "Book with loan overdue",
			MaxAttempts: 3,
			BaseDelay:   time.Second,
		},
		Overdue: OverdueConfig{
			ThresholdDays: 4,
			Message:       "Book with loan overdue",
			Schedule:      "0 0 * * *",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			ServiceName: "library-lending",
		},
	}
}

// LoadAppConfig reads the YAML file at path on top of DefaultAppConfig.
// An empty path returns the defaults, which fail validation for lack of a DSN.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if err = ParseAppConfig(data, &cfg); err != nil {
		return AppConfig{}, err
	}

	return cfg, cfg.Validate()
}

// ParseAppConfig expands environment placeholders in data and decodes it into cfg.
// Keys missing in data leave the values in cfg untouched.
func ParseAppConfig(data []byte, cfg *AppConfig) error {
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// Validate checks the settings the notifier cannot run without.
func (c AppConfig) Validate() error {
	switch c.Postgres.Adapter {
	case AdapterPGX, AdapterSQL, AdapterSQLX:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAdapterType, c.Postgres.Adapter)
	}

	if c.Postgres.DSN == "" {
		return ErrMissingDSN
	}

	if c.SMTP.Host == "" {
		return ErrMissingSMTPHost
	}

	if c.SMTP.Sender == "" {
		return ErrMissingSender
	}

	if c.Overdue.Schedule == "" {
		return ErrMissingSchedule
	}

	return nil
}
