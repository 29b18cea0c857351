// Package config provides configuration management for the application.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// MinScanIntervalSeconds is the floor for the telemetry poll cadence;
// configured values below it are clamped, not rejected.
const MinScanIntervalSeconds = 30

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
	Recovery   RecoveryConfig   `mapstructure:"recovery"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Middleware MiddlewareConfig `mapstructure:"middleware"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type TelemetryConfig struct {
	BaseURL                  string `mapstructure:"base_url"`
	Username                 string `mapstructure:"username"`
	Password                 string `mapstructure:"password"`
	RequestTimeout           int    `mapstructure:"request_timeout"`
	ScanIntervalSeconds      int    `mapstructure:"scan_interval_seconds"`
	HeartbeatIntervalSeconds int    `mapstructure:"heartbeat_interval_seconds"`
	MaxDataAgeSeconds        int    `mapstructure:"max_data_age_seconds"`
	StaleChecksThreshold     int    `mapstructure:"stale_checks_threshold"`
	StatsCapacity            int    `mapstructure:"stats_capacity"`
}

type BreakerConfig struct {
	FailureThreshold    int `mapstructure:"failure_threshold"`
	BaseCoolDownSeconds int `mapstructure:"base_cool_down_seconds"`
	MaxCoolDownSeconds  int `mapstructure:"max_cool_down_seconds"`
}

type RecoveryConfig struct {
	BaseDelaySeconds   int    `mapstructure:"base_delay_seconds"`
	MaxDelaySeconds    int    `mapstructure:"max_delay_seconds"`
	DegradedAfter      int    `mapstructure:"degraded_after_failures"`
	DailyReconnectTime string `mapstructure:"daily_reconnect_time"`
	Preflight          bool   `mapstructure:"preflight"`
}

type NotifyConfig struct {
	OnRecovery     bool                 `mapstructure:"on_recovery"`
	WebhookURL     string               `mapstructure:"webhook_url"`
	Timeout        int                  `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig configures the gobreaker guard on the notifier
// webhook. Distinct from BreakerConfig, which gates the telemetry API.
type CircuitBreakerConfig struct {
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"`
	Timeout          int     `mapstructure:"timeout"`
	FailureRatio     float64 `mapstructure:"failure_ratio"`
	ConsecutiveFails uint32  `mapstructure:"consecutive_fails"`
}

type StorageConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"dbname"`
	SSLMode      string `mapstructure:"sslmode"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type RedisConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	ReadingKey string `mapstructure:"reading_key"`
	ReadingTTL int    `mapstructure:"reading_ttl"`
}

type MiddlewareConfig struct {
	RateLimit      int      `mapstructure:"rate_limit"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst"`
	EnableCORS     bool     `mapstructure:"enable_cors"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", "8090")
	viper.SetDefault("server.read_timeout", 10)
	viper.SetDefault("server.write_timeout", 10)
	viper.SetDefault("telemetry.request_timeout", 30)
	viper.SetDefault("telemetry.scan_interval_seconds", 60)
	viper.SetDefault("telemetry.heartbeat_interval_seconds", 120)
	viper.SetDefault("telemetry.max_data_age_seconds", 300)
	viper.SetDefault("telemetry.stale_checks_threshold", 3)
	viper.SetDefault("telemetry.stats_capacity", 100)
	viper.SetDefault("breaker.failure_threshold", 5)
	viper.SetDefault("breaker.base_cool_down_seconds", 60)
	viper.SetDefault("breaker.max_cool_down_seconds", 900)
	viper.SetDefault("recovery.base_delay_seconds", 30)
	viper.SetDefault("recovery.max_delay_seconds", 900)
	viper.SetDefault("recovery.degraded_after_failures", 3)
	viper.SetDefault("recovery.daily_reconnect_time", "03:30:00")
	viper.SetDefault("recovery.preflight", true)
	viper.SetDefault("notify.on_recovery", true)
	viper.SetDefault("notify.timeout", 30)
	viper.SetDefault("notify.circuit_breaker.max_requests", 3)
	viper.SetDefault("notify.circuit_breaker.interval", 60)
	viper.SetDefault("notify.circuit_breaker.timeout", 60)
	viper.SetDefault("notify.circuit_breaker.failure_ratio", 0.6)
	viper.SetDefault("notify.circuit_breaker.consecutive_fails", 5)
	viper.SetDefault("storage.enabled", false)
	viper.SetDefault("storage.sslmode", "disable")
	viper.SetDefault("storage.history_limit", 500)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.reading_key", "telewatch:latest_reading")
	viper.SetDefault("redis.reading_ttl", 0)
	// One operator and a scraper; the scrape path is exempt anyway.
	viper.SetDefault("middleware.rate_limit", 10)
	viper.SetDefault("middleware.rate_limit_burst", 20)
	viper.SetDefault("middleware.enable_cors", false)
	viper.SetDefault("middleware.allowed_origins", []string{})

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Clamp rather than reject: a too-aggressive poll interval would hammer
	// the remote service.
	if config.Telemetry.ScanIntervalSeconds < MinScanIntervalSeconds {
		config.Telemetry.ScanIntervalSeconds = MinScanIntervalSeconds
	}

	return &config, nil
}

// GetDSN returns PostgreSQL connection string.
func (s *StorageConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.Host, s.Port, s.User, s.Password, s.DBName, s.SSLMode)
}
