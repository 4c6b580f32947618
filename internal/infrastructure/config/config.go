package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Silvasoft SilvasoftConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
	HTTP      HTTPConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds the store database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis is only used for event
// deduplication and is optional.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
	// Dir receives the per-day sync channel files
	Dir string
	// ArchiveAfter is the age after which closed channel files are archived
	ArchiveAfter time.Duration
}

// SilvasoftConfig holds the Silvasoft REST API settings
type SilvasoftConfig struct {
	APIURL            string
	APIKey            string
	APIUser           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	RetryAttempts     int
	RetryDelay        time.Duration
	PageSize          int
}

// SyncConfig holds defaults for the sync flows
type SyncConfig struct {
	// CustomerSince is the default --date of the customer export (YYYY-MM-DD)
	CustomerSince string
	// OrderSince is the default --date of the order export (YYYY-MM-DD)
	OrderSince string
	// OrderLookback bounds the scheduled scan for unsynced orders
	OrderLookback time.Duration
	// DefaultTaxRate is used when a product or line item has no tax rate
	DefaultTaxRate float64
	// IdempotencyTTL is how long a handled event delivery is remembered
	IdempotencyTTL time.Duration
}

// SchedulerConfig holds the periodic task settings
type SchedulerConfig struct {
	Enabled        bool
	OrderInterval  time.Duration
	StockInterval  time.Duration
	OrderBatchSize int
	// TaskTimeout bounds a single task run
	TaskTimeout time.Duration
}

// HTTPConfig holds the webhook server settings
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxBodySize    int64
	// WebhookSecret, when set, must be sent in the X-Webhook-Secret header
	WebhookSecret  string
	TrustedProxies []string
}

// StorageConfig holds the S3 settings used to archive sync logs
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	// Prefix is prepended to every object key
	Prefix string
}

// TelemetryConfig holds OpenTelemetry tracing settings
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
}

// ErrSilvasoftNotConfigured is returned by RequireSilvasoft when a command
// that talks to Silvasoft runs without credentials.
var ErrSilvasoftNotConfigured = errors.New("config: silvasoft api_url, api_key and api_user are required")

// Load reads configuration from an optional .env file, config.toml and
// environment variables.
//
// Priority (highest to lowest):
// 1. Environment variables with SILVASYNC_ prefix (e.g., SILVASYNC_SILVASOFT_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/silvasync")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SILVASYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:        v.GetString("log.level"),
			Format:       v.GetString("log.format"),
			Output:       v.GetString("log.output"),
			Dir:          v.GetString("log.dir"),
			ArchiveAfter: v.GetDuration("log.archive_after"),
		},
		Silvasoft: SilvasoftConfig{
			APIURL:            v.GetString("silvasoft.api_url"),
			APIKey:            v.GetString("silvasoft.api_key"),
			APIUser:           v.GetString("silvasoft.api_user"),
			Timeout:           v.GetDuration("silvasoft.timeout"),
			RequestsPerSecond: v.GetFloat64("silvasoft.requests_per_second"),
			Burst:             v.GetInt("silvasoft.burst"),
			RetryAttempts:     v.GetInt("silvasoft.retry_attempts"),
			RetryDelay:        v.GetDuration("silvasoft.retry_delay"),
			PageSize:          v.GetInt("silvasoft.page_size"),
		},
		Sync: SyncConfig{
			CustomerSince:  v.GetString("sync.customer_since"),
			OrderSince:     v.GetString("sync.order_since"),
			OrderLookback:  v.GetDuration("sync.order_lookback"),
			DefaultTaxRate: v.GetFloat64("sync.default_tax_rate"),
			IdempotencyTTL: v.GetDuration("sync.idempotency_ttl"),
		},
		Scheduler: SchedulerConfig{
			Enabled:        v.GetBool("scheduler.enabled"),
			OrderInterval:  v.GetDuration("scheduler.order_interval"),
			StockInterval:  v.GetDuration("scheduler.stock_interval"),
			OrderBatchSize: v.GetInt("scheduler.order_batch_size"),
			TaskTimeout:    v.GetDuration("scheduler.task_timeout"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxBodySize:    v.GetInt64("http.max_body_size"),
			WebhookSecret:  v.GetString("http.webhook_secret"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Endpoint:        v.GetString("storage.endpoint"),
			Region:          v.GetString("storage.region"),
			Bucket:          v.GetString("storage.bucket"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			Prefix:          v.GetString("storage.prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
		},
	}

	applyDefaults(cfg)

	if !v.IsSet("scheduler.enabled") {
		cfg.Scheduler.Enabled = true
	}
	if !v.IsSet("telemetry.db_trace_enabled") {
		cfg.Telemetry.DBTraceEnabled = true
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "silvasync"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "shopware"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.Dir == "" {
		cfg.Log.Dir = "var/log"
	}
	if cfg.Log.ArchiveAfter == 0 {
		cfg.Log.ArchiveAfter = 30 * 24 * time.Hour
	}
	if cfg.Silvasoft.APIURL == "" {
		cfg.Silvasoft.APIURL = "https://rest-api.silvasoft.nl"
	}
	if cfg.Silvasoft.Timeout == 0 {
		cfg.Silvasoft.Timeout = 30 * time.Second
	}
	if cfg.Silvasoft.RequestsPerSecond == 0 {
		cfg.Silvasoft.RequestsPerSecond = 1 / 1.4
	}
	if cfg.Silvasoft.Burst == 0 {
		cfg.Silvasoft.Burst = 1
	}
	if cfg.Silvasoft.RetryAttempts == 0 {
		cfg.Silvasoft.RetryAttempts = 5
	}
	if cfg.Silvasoft.RetryDelay == 0 {
		cfg.Silvasoft.RetryDelay = 5 * time.Second
	}
	if cfg.Silvasoft.PageSize == 0 {
		cfg.Silvasoft.PageSize = 100
	}
	if cfg.Sync.CustomerSince == "" {
		cfg.Sync.CustomerSince = "2020-01-01"
	}
	if cfg.Sync.OrderSince == "" {
		cfg.Sync.OrderSince = "2025-01-01"
	}
	if cfg.Sync.OrderLookback == 0 {
		cfg.Sync.OrderLookback = 7 * 24 * time.Hour
	}
	if cfg.Sync.DefaultTaxRate == 0 {
		cfg.Sync.DefaultTaxRate = 21
	}
	if cfg.Sync.IdempotencyTTL == 0 {
		cfg.Sync.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Scheduler.OrderInterval == 0 {
		cfg.Scheduler.OrderInterval = 15 * time.Minute
	}
	if cfg.Scheduler.StockInterval == 0 {
		cfg.Scheduler.StockInterval = 15 * time.Minute
	}
	if cfg.Scheduler.OrderBatchSize == 0 {
		cfg.Scheduler.OrderBatchSize = 10
	}
	if cfg.Scheduler.TaskTimeout == 0 {
		cfg.Scheduler.TaskTimeout = 10 * time.Minute
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "eu-west-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "sync-logs"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate checks that configuration values are consistent
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Silvasoft.RequestsPerSecond <= 0 {
		return fmt.Errorf("silvasoft.requests_per_second must be positive, got %f", c.Silvasoft.RequestsPerSecond)
	}
	if c.Silvasoft.Burst < 0 {
		return fmt.Errorf("silvasoft.burst cannot be negative")
	}
	if c.Silvasoft.RetryDelay < 0 {
		return fmt.Errorf("silvasoft.retry_delay cannot be negative")
	}
	if c.Silvasoft.PageSize < 0 {
		return fmt.Errorf("silvasoft.page_size cannot be negative")
	}

	if c.Sync.DefaultTaxRate < 0 {
		return fmt.Errorf("sync.default_tax_rate cannot be negative")
	}
	if c.Scheduler.OrderBatchSize < 0 {
		return fmt.Errorf("scheduler.order_batch_size cannot be negative")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}

	if c.App.Env == "production" {
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to keep customer data out of traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// RequireSilvasoft checks the credentials needed by commands that call the
// Silvasoft API.
func (c *Config) RequireSilvasoft() error {
	s := c.Silvasoft
	if strings.TrimSpace(s.APIURL) == "" || strings.TrimSpace(s.APIKey) == "" || strings.TrimSpace(s.APIUser) == "" {
		return ErrSilvasoftNotConfigured
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
