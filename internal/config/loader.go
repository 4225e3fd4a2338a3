package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. AQUASENSE_FEED_TYPE=redis
const EnvPrefix = "AQUASENSE"

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Current directory
		v.AddConfigPath("./configs")      // Project configs directory
		v.AddConfigPath("./config")       // Alternative config directory
		v.AddConfigPath("/etc/aquasense") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout.String())
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout.String())

	// Feed defaults
	v.SetDefault("feed.type", d.Feed.Type)
	v.SetDefault("feed.url", d.Feed.URL)
	v.SetDefault("feed.compression", d.Feed.Compression)
	v.SetDefault("feed.nats_stream", d.Feed.NATSStream)
	v.SetDefault("feed.redis_db", d.Feed.RedisDB)
	v.SetDefault("feed.redis_stream", d.Feed.RedisStream)
	v.SetDefault("feed.redis_group", d.Feed.RedisGroup)
	v.SetDefault("feed.kafka_brokers", d.Feed.KafkaBrokers)

	// Topic defaults
	v.SetDefault("topics.do", d.Topics.DO)
	v.SetDefault("topics.ph", d.Topics.PH)
	v.SetDefault("topics.temperature", d.Topics.Temperature)
	v.SetDefault("topics.ultrasonic", d.Topics.Ultrasonic)
	v.SetDefault("topics.energy_live", d.Topics.EnergyLive)
	v.SetDefault("topics.energy_daily", d.Topics.EnergyDaily)

	// Prediction defaults
	v.SetDefault("prediction.enabled", d.Prediction.Enabled)
	v.SetDefault("prediction.base_url", d.Prediction.BaseURL)
	v.SetDefault("prediction.predict_path", d.Prediction.PredictPath)
	v.SetDefault("prediction.meta_path", d.Prediction.MetaPath)
	v.SetDefault("prediction.default_lags", d.Prediction.DefaultLags)
	v.SetDefault("prediction.timeout", d.Prediction.Timeout.String())

	// Analysis defaults
	v.SetDefault("analysis.window", d.Analysis.Window)
	v.SetDefault("analysis.lookback", d.Analysis.Lookback)
	v.SetDefault("analysis.anomaly_threshold", d.Analysis.AnomalyThreshold)
	v.SetDefault("analysis.timezone", d.Analysis.Timezone)

	// Threshold defaults
	v.SetDefault("thresholds.do_min", d.Thresholds.DOMin)
	v.SetDefault("thresholds.ph_min", d.Thresholds.PHMin)
	v.SetDefault("thresholds.ph_max", d.Thresholds.PHMax)
	v.SetDefault("thresholds.temp_min", d.Thresholds.TempMin)
	v.SetDefault("thresholds.temp_ceiling", d.Thresholds.TempCeiling)
	v.SetDefault("thresholds.temp_recommend_max", d.Thresholds.TempRecommendMax)
	v.SetDefault("thresholds.ranges.ph.lo", d.Thresholds.Ranges.PH.Lo)
	v.SetDefault("thresholds.ranges.ph.hi", d.Thresholds.Ranges.PH.Hi)
	v.SetDefault("thresholds.ranges.do.lo", d.Thresholds.Ranges.DO.Lo)
	v.SetDefault("thresholds.ranges.do.hi", d.Thresholds.Ranges.DO.Hi)
	v.SetDefault("thresholds.ranges.temperature.lo", d.Thresholds.Ranges.Temperature.Lo)
	v.SetDefault("thresholds.ranges.temperature.hi", d.Thresholds.Ranges.Temperature.Hi)

	// Auth defaults
	v.SetDefault("auth.enabled", d.Auth.Enabled)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			HTTPPort:     5580,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Feed: FeedConfig{
			Type:          "memory",
			Compression:   "none",
			NATSStream:    "AQUASENSE",
			RedisStream:   "aquasense",
			RedisGroup:    "aquasense-dashboard",
			KafkaBrokers:  []string{},
			RedisConsumer: "",
		},
		Topics: TopicsConfig{
			DO:          "doData",
			PH:          "phData",
			Temperature: "temperatureData",
			Ultrasonic:  "ultrasonicData",
			EnergyLive:  "energy/live",
			EnergyDaily: "energy/daily",
		},
		Prediction: PredictionConfig{
			Enabled:     true,
			BaseURL:     "http://127.0.0.1:5001",
			PredictPath: "/predict_do",
			MetaPath:    "/meta",
			DefaultLags: 6,
		},
		Analysis: AnalysisConfig{
			Window:           40,
			Lookback:         20,
			AnomalyThreshold: 2,
			Timezone:         "UTC",
		},
		Thresholds: ThresholdsConfig{
			DOMin:            5,
			PHMin:            6.5,
			PHMax:            8.5,
			TempMin:          0,
			TempCeiling:      35,
			TempRecommendMax: 32,
			Ranges: RangesConfig{
				PH:          RangeConfig{Lo: 6, Hi: 9},
				DO:          RangeConfig{Lo: 2, Hi: 8},
				Temperature: RangeConfig{Lo: 20, Hi: 30},
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
