package config

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// The external services mediated by this layer.
const (
	ServiceMediaServer   = "media-server"
	ServiceRequestBroker = "request-broker"
	ServiceDownloader    = "downloader"
	ServiceUptimeMonitor = "uptime-monitor"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type HealthConfig struct {
	WindowSize    int           `mapstructure:"window_size"`
	TrendDelta    float64       `mapstructure:"trend_delta"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

type ServiceConfig struct {
	BaseURL          string          `mapstructure:"base_url"`
	StatusURL        string          `mapstructure:"status_url"`
	FailureThreshold int             `mapstructure:"failure_threshold"`
	ResetTimeout     time.Duration   `mapstructure:"reset_timeout"`
	RateLimit        RateLimitConfig `mapstructure:"rate_limit"`
	Retry            RetryConfig     `mapstructure:"retry"`
	CallTimeout      time.Duration   `mapstructure:"call_timeout"`
	CacheTTL         time.Duration   `mapstructure:"cache_ttl"`
	WebhookSecret    string          `mapstructure:"webhook_secret"`
}

type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Logging  LoggingConfig            `mapstructure:"logging"`
	Health   HealthConfig             `mapstructure:"health"`
	Services map[string]ServiceConfig `mapstructure:"services"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("health.window_size", 100)
	viper.SetDefault("health.trend_delta", 0.1)
	viper.SetDefault("health.probe_interval", "30s")

	// The media server serves frequent, cheap reads: short window, large
	// quota, aggressive caching. The download helper is the opposite: a
	// strict per-user hourly budget.
	setServiceDefaults(ServiceMediaServer, ServiceConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		RateLimit:        RateLimitConfig{Limit: 100, Window: time.Minute},
		Retry:            RetryConfig{MaxAttempts: 3, BaseDelay: time.Second},
		CallTimeout:      10 * time.Second,
		CacheTTL:         5 * time.Minute,
	})
	setServiceDefaults(ServiceRequestBroker, ServiceConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		RateLimit:        RateLimitConfig{Limit: 20, Window: time.Minute},
		Retry:            RetryConfig{MaxAttempts: 3, BaseDelay: time.Second},
		CallTimeout:      10 * time.Second,
		CacheTTL:         time.Minute,
	})
	setServiceDefaults(ServiceDownloader, ServiceConfig{
		FailureThreshold: 3,
		ResetTimeout:     time.Minute,
		RateLimit:        RateLimitConfig{Limit: 5, Window: time.Hour},
		Retry:            RetryConfig{MaxAttempts: 2, BaseDelay: 2 * time.Second},
		CallTimeout:      30 * time.Second,
	})
	setServiceDefaults(ServiceUptimeMonitor, ServiceConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		RateLimit:        RateLimitConfig{Limit: 60, Window: time.Minute},
		Retry:            RetryConfig{MaxAttempts: 3, BaseDelay: time.Second},
		CallTimeout:      10 * time.Second,
		CacheTTL:         30 * time.Second,
	})

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Error("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func setServiceDefaults(service string, sc ServiceConfig) {
	prefix := "services." + service + "."
	viper.SetDefault(prefix+"failure_threshold", sc.FailureThreshold)
	viper.SetDefault(prefix+"reset_timeout", sc.ResetTimeout.String())
	viper.SetDefault(prefix+"rate_limit.limit", sc.RateLimit.Limit)
	viper.SetDefault(prefix+"rate_limit.window", sc.RateLimit.Window.String())
	viper.SetDefault(prefix+"retry.max_attempts", sc.Retry.MaxAttempts)
	viper.SetDefault(prefix+"retry.base_delay", sc.Retry.BaseDelay.String())
	viper.SetDefault(prefix+"call_timeout", sc.CallTimeout.String())
	if sc.CacheTTL > 0 {
		viper.SetDefault(prefix+"cache_ttl", sc.CacheTTL.String())
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Health,
			validation.Required,
			validation.By(validateHealthConfig),
		),
		validation.Field(&c.Services,
			validation.Required,
			validation.Length(1, 0),
			validation.By(validateServices),
		),
	)
}

func validateHealthConfig(value interface{}) error {
	hc, ok := value.(HealthConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a HealthConfig")
	}

	if hc.WindowSize < 2 {
		return validation.NewError("validation_invalid_window", "health window must hold at least 2 samples")
	}

	if hc.TrendDelta <= 0 || hc.TrendDelta >= 1 {
		return validation.NewError("validation_invalid_delta", "trend delta must be in (0, 1)")
	}

	if hc.ProbeInterval <= 0 {
		return validation.NewError("validation_invalid_interval", "probe interval must be positive")
	}

	return nil
}

func validateServices(value interface{}) error {
	services, ok := value.(map[string]ServiceConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a map of ServiceConfig")
	}

	for name, sc := range services {
		if err := validateServiceConfig(name, sc); err != nil {
			return err
		}
	}

	return nil
}

func validateServiceConfig(name string, sc ServiceConfig) error {
	if sc.FailureThreshold < 1 {
		return validation.NewError("validation_invalid_threshold", name+": failure threshold must be at least 1")
	}

	if sc.ResetTimeout <= 0 {
		return validation.NewError("validation_invalid_timeout", name+": reset timeout must be positive")
	}

	if sc.RateLimit.Limit < 1 {
		return validation.NewError("validation_invalid_limit", name+": rate limit must be at least 1")
	}

	if sc.RateLimit.Window <= 0 {
		return validation.NewError("validation_invalid_window", name+": rate limit window must be positive")
	}

	if sc.Retry.MaxAttempts < 1 {
		return validation.NewError("validation_invalid_attempts", name+": retry attempts must be at least 1")
	}

	if sc.Retry.BaseDelay <= 0 {
		return validation.NewError("validation_invalid_delay", name+": retry base delay must be positive")
	}

	if sc.CallTimeout <= 0 {
		return validation.NewError("validation_invalid_timeout", name+": call timeout must be positive")
	}

	if sc.CacheTTL < 0 {
		return validation.NewError("validation_invalid_ttl", name+": cache TTL cannot be negative")
	}

	if sc.BaseURL != "" {
		if err := validateServiceURL(sc.BaseURL); err != nil {
			return err
		}
	}

	if sc.StatusURL != "" {
		if err := validateServiceURL(sc.StatusURL); err != nil {
			return err
		}
	}

	return nil
}

func validateServiceURL(serviceURL string) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}

// WebhookSecrets collects the per-source secrets for webhook
// verification. Services without a secret accept no webhooks.
func (c *Config) WebhookSecrets() map[string]string {
	secrets := make(map[string]string)
	for name, sc := range c.Services {
		if sc.WebhookSecret != "" {
			secrets[name] = sc.WebhookSecret
		}
	}
	return secrets
}
