package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Topics     TopicsConfig     `mapstructure:"topics"`
	Prediction PredictionConfig `mapstructure:"prediction"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`      // Bind address for server (e.g., 0.0.0.0 for all interfaces)
	HTTPPort     int           `mapstructure:"http_port"` // HTTP server port
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// FeedConfig selects the transport that delivers store snapshots
type FeedConfig struct {
	Type        string `mapstructure:"type"`        // memory (default), redis, nats, kafka
	URL         string `mapstructure:"url"`         // Broker URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username    string `mapstructure:"username"`    // Optional authentication
	Password    string `mapstructure:"password"`    // Optional authentication
	Compression string `mapstructure:"compression"` // none (default) or snappy

	// NATS-specific options
	NATSStream string `mapstructure:"nats_stream"` // JetStream stream name (default: "AQUASENSE")

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "aquasense")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "aquasense-dashboard")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// TopicsConfig names the store paths of every sensor feed
type TopicsConfig struct {
	DO          string `mapstructure:"do"`
	PH          string `mapstructure:"ph"`
	Temperature string `mapstructure:"temperature"`
	Ultrasonic  string `mapstructure:"ultrasonic"`
	EnergyLive  string `mapstructure:"energy_live"`
	EnergyDaily string `mapstructure:"energy_daily"`
}

// All returns the configured topics, skipping empty ones
func (t TopicsConfig) All() []string {
	var out []string
	for _, topic := range []string{t.DO, t.PH, t.Temperature, t.Ultrasonic, t.EnergyLive, t.EnergyDaily} {
		if topic != "" {
			out = append(out, topic)
		}
	}
	return out
}

// PredictionConfig describes the remote forecasting model
type PredictionConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BaseURL     string `mapstructure:"base_url"`
	PredictPath string `mapstructure:"predict_path"`
	MetaPath    string `mapstructure:"meta_path"`
	DefaultLags int    `mapstructure:"default_lags"` // Used when the meta endpoint is unavailable
	// Timeout is applied by the service as a request deadline; 0 waits indefinitely
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnalysisConfig tunes the statistical heuristics
type AnalysisConfig struct {
	Window           int     `mapstructure:"window"`            // Most recent samples analysed per metric
	Lookback         int     `mapstructure:"lookback"`          // z-score window
	AnomalyThreshold float64 `mapstructure:"anomaly_threshold"` // |z| above which a reading is anomalous
	Timezone         string  `mapstructure:"timezone"`          // Zone for zone-less timestamps and day keys (e.g., "Europe/Istanbul", "+03:00", "UTC")
}

// RangeConfig is an inclusive process range
type RangeConfig struct {
	Lo float64 `mapstructure:"lo"`
	Hi float64 `mapstructure:"hi"`
}

// RangesConfig holds the process ranges used by the metric assessment
type RangesConfig struct {
	PH          RangeConfig `mapstructure:"ph"`
	DO          RangeConfig `mapstructure:"do"`
	Temperature RangeConfig `mapstructure:"temperature"`
}

// ThresholdsConfig holds the water-quality thresholds.
// TempCeiling (classifier) and TempRecommendMax (cooling advice) are independent.
type ThresholdsConfig struct {
	DOMin            float64      `mapstructure:"do_min"`
	PHMin            float64      `mapstructure:"ph_min"`
	PHMax            float64      `mapstructure:"ph_max"`
	TempMin          float64      `mapstructure:"temp_min"`
	TempCeiling      float64      `mapstructure:"temp_ceiling"`
	TempRecommendMax float64      `mapstructure:"temp_recommend_max"`
	Ranges           RangesConfig `mapstructure:"ranges"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Feed.Validate(); err != nil {
		return fmt.Errorf("feed config: %w", err)
	}

	if err := c.Prediction.Validate(); err != nil {
		return fmt.Errorf("prediction config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}

	return nil
}

// Validate validates feed configuration
func (c *FeedConfig) Validate() error {
	switch strings.ToLower(c.Type) {
	case "", "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("feed.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("feed.kafka_brokers or feed.url is required for kafka")
		}
	default:
		return fmt.Errorf("feed.type must be one of: memory, nats, redis, kafka")
	}

	switch strings.ToLower(c.Compression) {
	case "", "none", "snappy":
	default:
		return fmt.Errorf("feed.compression must be 'none' or 'snappy'")
	}

	return nil
}

// Validate validates prediction configuration
func (c *PredictionConfig) Validate() error {
	if c.Enabled && c.BaseURL == "" {
		return fmt.Errorf("prediction.base_url is required when prediction is enabled")
	}

	if c.DefaultLags < 1 {
		return fmt.Errorf("prediction.default_lags must be at least 1")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("prediction.timeout must not be negative")
	}

	return nil
}

// Validate validates analysis configuration
func (c *AnalysisConfig) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("analysis.window must be at least 1")
	}

	if c.Lookback < 1 {
		return fmt.Errorf("analysis.lookback must be at least 1")
	}

	if c.AnomalyThreshold <= 0 {
		return fmt.Errorf("analysis.anomaly_threshold must be positive")
	}

	if _, err := LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("analysis.timezone: %w", err)
	}

	return nil
}

// Validate validates threshold configuration
func (c *ThresholdsConfig) Validate() error {
	if c.PHMin > c.PHMax {
		return fmt.Errorf("thresholds.ph_min cannot exceed thresholds.ph_max")
	}

	if c.TempMin > c.TempCeiling {
		return fmt.Errorf("thresholds.temp_min cannot exceed thresholds.temp_ceiling")
	}

	for name, r := range map[string]RangeConfig{"ph": c.Ranges.PH, "do": c.Ranges.DO, "temperature": c.Ranges.Temperature} {
		if r.Lo > r.Hi {
			return fmt.Errorf("thresholds.ranges.%s: lo cannot exceed hi", name)
		}
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if len(c.APIKeys) == 0 {
		return fmt.Errorf("auth.api_keys is required when auth is enabled")
	}

	for _, key := range c.APIKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("auth.api_keys must not contain empty keys")
		}
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
