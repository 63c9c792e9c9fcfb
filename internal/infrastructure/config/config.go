package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	ERP        ERPConfig
	Egnyte     EgnyteConfig
	Rules      RulesConfig
	TokenCache TokenCacheConfig
	Ledger     LedgerConfig
	Provision  ProvisionConfig
	Status     StatusConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ERPConfig holds the ERP API endpoint and identity credentials
type ERPConfig struct {
	BaseURL        string `validate:"required,url"`
	TokenURL       string `validate:"required,url"`
	ClientID       string
	ClientSecret   string
	Username       string `validate:"required"`
	Password       string `validate:"required"`
	TimeoutSeconds int
}

// EgnyteConfig holds the Egnyte API endpoint and OAuth credentials
type EgnyteConfig struct {
	APIBaseURL     string `validate:"required,url"`
	TokenURL       string `validate:"required,url"`
	ClientID       string `validate:"required"`
	ClientSecret   string
	Username       string `validate:"required"`
	Password       string `validate:"required"`
	SharedRoot     string `validate:"required"`
	TemplateRoot   string `validate:"required"`
	CopyTimeout    time.Duration
	TimeoutSeconds int
}

// RulesConfig locates the template decision table
type RulesConfig struct {
	Path string `validate:"required"`
}

// TokenCacheConfig selects the token cache backend
type TokenCacheConfig struct {
	Backend string `validate:"oneof=file memory redis"`
	Dir     string
	Redis   RedisConfig
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LedgerConfig holds run ledger database settings
type LedgerConfig struct {
	Enabled bool
	Driver  string `validate:"oneof=sqlite postgres"`
	// DSN is the sqlite file path or postgres connection string
	DSN string
}

// ProvisionConfig holds worker pool settings for a provisioning run
type ProvisionConfig struct {
	Workers    int           `validate:"gt=0"`
	QueueSize  int           `validate:"gt=0"`
	JobTimeout time.Duration `validate:"gt=0"`
	DryRun     bool
	// ReportDir is where per-run CSV reports are written; empty disables
	// report files.
	ReportDir string
}

// StatusConfig holds the optional status HTTP server configuration
type StatusConfig struct {
	Enabled bool
	Port    string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PROV_ prefix (e.g., PROV_EGNYTE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/egnyte-provisioner")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PROV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		ERP: ERPConfig{
			BaseURL:        v.GetString("erp.base_url"),
			TokenURL:       v.GetString("erp.token_url"),
			ClientID:       v.GetString("erp.client_id"),
			ClientSecret:   v.GetString("erp.client_secret"),
			Username:       v.GetString("erp.username"),
			Password:       v.GetString("erp.password"),
			TimeoutSeconds: v.GetInt("erp.timeout_seconds"),
		},
		Egnyte: EgnyteConfig{
			APIBaseURL:     v.GetString("egnyte.api_base_url"),
			TokenURL:       v.GetString("egnyte.token_url"),
			ClientID:       v.GetString("egnyte.client_id"),
			ClientSecret:   v.GetString("egnyte.client_secret"),
			Username:       v.GetString("egnyte.username"),
			Password:       v.GetString("egnyte.password"),
			SharedRoot:     v.GetString("egnyte.shared_root"),
			TemplateRoot:   v.GetString("egnyte.template_root"),
			CopyTimeout:    v.GetDuration("egnyte.copy_timeout"),
			TimeoutSeconds: v.GetInt("egnyte.timeout_seconds"),
		},
		Rules: RulesConfig{
			Path: v.GetString("rules.path"),
		},
		TokenCache: TokenCacheConfig{
			Backend: v.GetString("token_cache.backend"),
			Dir:     v.GetString("token_cache.dir"),
			Redis: RedisConfig{
				Host:     v.GetString("token_cache.redis.host"),
				Port:     v.GetInt("token_cache.redis.port"),
				Password: v.GetString("token_cache.redis.password"),
				DB:       v.GetInt("token_cache.redis.db"),
			},
		},
		Ledger: LedgerConfig{
			Enabled: v.GetBool("ledger.enabled"),
			Driver:  v.GetString("ledger.driver"),
			DSN:     v.GetString("ledger.dsn"),
		},
		Provision: ProvisionConfig{
			Workers:    v.GetInt("provision.workers"),
			QueueSize:  v.GetInt("provision.queue_size"),
			JobTimeout: v.GetDuration("provision.job_timeout"),
			DryRun:     v.GetBool("provision.dry_run"),
			ReportDir:  v.GetString("provision.report_dir"),
		},
		Status: StatusConfig{
			Enabled: v.GetBool("status.enabled"),
			Port:    v.GetString("status.port"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "egnyte-provisioner"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.ERP.TimeoutSeconds == 0 {
		cfg.ERP.TimeoutSeconds = 60
	}
	if cfg.Egnyte.SharedRoot == "" {
		cfg.Egnyte.SharedRoot = "Projects"
	}
	if cfg.Egnyte.TemplateRoot == "" {
		cfg.Egnyte.TemplateRoot = "Templates"
	}
	if cfg.Egnyte.CopyTimeout == 0 {
		cfg.Egnyte.CopyTimeout = 30 * time.Second
	}
	if cfg.Egnyte.TimeoutSeconds == 0 {
		cfg.Egnyte.TimeoutSeconds = 30
	}
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = "template_rules.csv"
	}
	if cfg.TokenCache.Backend == "" {
		cfg.TokenCache.Backend = "file"
	}
	if cfg.TokenCache.Dir == "" {
		cfg.TokenCache.Dir = ".token-cache"
	}
	if cfg.TokenCache.Redis.Host == "" {
		cfg.TokenCache.Redis.Host = "localhost"
	}
	if cfg.TokenCache.Redis.Port == 0 {
		cfg.TokenCache.Redis.Port = 6379
	}
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = "sqlite"
	}
	if cfg.Ledger.DSN == "" && cfg.Ledger.Driver == "sqlite" {
		cfg.Ledger.DSN = "provision_ledger.db"
	}
	if cfg.Provision.Workers == 0 {
		cfg.Provision.Workers = 4
	}
	if cfg.Provision.QueueSize == 0 {
		cfg.Provision.QueueSize = 64
	}
	if cfg.Provision.JobTimeout == 0 {
		cfg.Provision.JobTimeout = 5 * time.Minute
	}
	if cfg.Status.Port == "" {
		cfg.Status.Port = "8080"
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

// validate performs validation on the configuration
func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.Struct(c.Rules); err != nil {
		return fmt.Errorf("invalid rules config: %w", err)
	}
	if err := validate.Struct(c.TokenCache); err != nil {
		return fmt.Errorf("invalid token_cache config: %w", err)
	}
	if err := validate.Struct(c.Ledger); err != nil {
		return fmt.Errorf("invalid ledger config: %w", err)
	}
	if err := validate.Struct(c.Provision); err != nil {
		return fmt.Errorf("invalid provision config: %w", err)
	}

	// Credential checks only bite in production; development runs lean on
	// dry-run mode and local fixtures.
	if c.App.Env == "production" {
		if err := validate.Struct(c.ERP); err != nil {
			return fmt.Errorf("invalid erp config: %w", err)
		}
		if err := validate.Struct(c.Egnyte); err != nil {
			return fmt.Errorf("invalid egnyte config: %w", err)
		}
		if c.Ledger.Driver == "postgres" && c.Ledger.DSN == "" {
			return fmt.Errorf("ledger.dsn is required for the postgres driver")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
