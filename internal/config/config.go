package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. FINANCEFLOW_BACKEND.
const EnvPrefix = "FINANCEFLOW"

type Config struct {
	// Storage backend
	Backend      string
	DataDir      string
	SQLitePath   string
	PostgresURL  string
	StorageKey   string
	MemoryQuota  int
	VerifyWrites bool

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Categories
	CategoriesFile   string
	StrictCategories bool

	// AMQP change events (optional)
	AMQPURL             string
	AMQPExchange        string
	AMQPQueue           string
	AMQPConnectAttempts int

	// Reports
	ReportWindow  string
	TopCategories int
	PageSize      int
	CacheSize     int
	CacheTTL      time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

var validBackends = []string{"memory", "file", "sqlite", "postgres", "redis"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", "file")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("sqlite_path", "./data/financeflow.db")
	v.SetDefault("postgres_url", "")
	v.SetDefault("storage_key", "financeflow_transactions")
	v.SetDefault("memory_quota", 5<<20)
	v.SetDefault("verify_writes", false)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("categories_file", "")
	v.SetDefault("strict_categories", true)

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "financeflow")
	v.SetDefault("amqp_queue", "transaction_events")
	v.SetDefault("amqp_connect_attempts", 1)

	v.SetDefault("report_window", "30")
	v.SetDefault("top_categories", 5)
	v.SetDefault("page_size", 10)
	v.SetDefault("cache_size", 32)
	v.SetDefault("cache_ttl", 5*time.Minute)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads FINANCEFLOW_* environment variables over built-in defaults.
// When FINANCEFLOW_CONFIG names a YAML file, its keys sit between the two.
// A .env file in the working directory is loaded first for local development.
func Load() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return &Config{
		Backend:      strings.ToLower(v.GetString("backend")),
		DataDir:      v.GetString("data_dir"),
		SQLitePath:   v.GetString("sqlite_path"),
		PostgresURL:  v.GetString("postgres_url"),
		StorageKey:   v.GetString("storage_key"),
		MemoryQuota:  v.GetInt("memory_quota"),
		VerifyWrites: v.GetBool("verify_writes"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		CategoriesFile:   v.GetString("categories_file"),
		StrictCategories: v.GetBool("strict_categories"),

		AMQPURL:             v.GetString("amqp_url"),
		AMQPExchange:        v.GetString("amqp_exchange"),
		AMQPQueue:           v.GetString("amqp_queue"),
		AMQPConnectAttempts: v.GetInt("amqp_connect_attempts"),

		ReportWindow:  v.GetString("report_window"),
		TopCategories: v.GetInt("top_categories"),
		PageSize:      v.GetInt("page_size"),
		CacheSize:     v.GetInt("cache_size"),
		CacheTTL:      v.GetDuration("cache_ttl"),

		LogLevel:  strings.ToLower(v.GetString("log_level")),
		LogFormat: strings.ToLower(v.GetString("log_format")),
	}, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.Backend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	} else if strings.ContainsAny(c.StorageKey, `/\`) {
		errors = append(errors, fmt.Sprintf("invalid storage key '%s': must not contain path separators", c.StorageKey))
	}

	switch c.Backend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "Postgres URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	case "redis":
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address is required when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid Redis DB %d: must be non-negative", c.RedisDB))
		}
	}

	if c.MemoryQuota < 0 {
		errors = append(errors, fmt.Sprintf("invalid memory quota %d: must be non-negative", c.MemoryQuota))
	}

	if c.CategoriesFile != "" {
		if _, err := os.Stat(c.CategoriesFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("categories file does not exist: %s", c.CategoriesFile))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPConnectAttempts < 1 || c.AMQPConnectAttempts > 10 {
			errors = append(errors, fmt.Sprintf("invalid AMQP connect attempts %d: must be between 1 and 10", c.AMQPConnectAttempts))
		}
	}

	if c.ReportWindow != "all" {
		if n, err := strconv.Atoi(c.ReportWindow); err != nil || n < 0 {
			errors = append(errors, fmt.Sprintf("invalid report window '%s': must be 'all' or a non-negative number of days", c.ReportWindow))
		}
	}
	if c.TopCategories < 1 || c.TopCategories > 50 {
		errors = append(errors, fmt.Sprintf("invalid top categories %d: must be between 1 and 50", c.TopCategories))
	}
	if c.PageSize < 1 || c.PageSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be between 1 and 1000", c.PageSize))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be non-negative", c.CacheTTL))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
