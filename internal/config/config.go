package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the training runtime.
type Config struct {
	Server   ServerConfig
	Runner   RunnerConfig
	Registry RegistryConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"SERVER_PORT"`
	ReadTimeout     time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SERVER_SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `mapstructure:"SERVER_RATE_LIMIT_RPS"`
	RateLimitBurst  int           `mapstructure:"SERVER_RATE_LIMIT_BURST"`
	MaxBodyBytes    int64         `mapstructure:"SERVER_MAX_BODY_BYTES"`
	GinMode         string        `mapstructure:"GIN_MODE"`
}

type RunnerConfig struct {
	PoolSize     int           `mapstructure:"RUNNER_POOL_SIZE"`
	TrainTimeout time.Duration `mapstructure:"RUNNER_TRAIN_TIMEOUT"`
}

type RegistryConfig struct {
	// RetentionTTL of zero keeps terminal trainings forever.
	RetentionTTL  time.Duration `mapstructure:"REGISTRY_RETENTION_TTL"`
	SweepInterval time.Duration `mapstructure:"REGISTRY_SWEEP_INTERVAL"`
}

type LogConfig struct {
	Level string `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "15s")
	viper.SetDefault("SERVER_RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("SERVER_RATE_LIMIT_BURST", 20)
	viper.SetDefault("SERVER_MAX_BODY_BYTES", 1<<20)
	viper.SetDefault("GIN_MODE", "release")
	viper.SetDefault("RUNNER_POOL_SIZE", 5)
	viper.SetDefault("RUNNER_TRAIN_TIMEOUT", "0s")
	viper.SetDefault("REGISTRY_RETENTION_TTL", "0s")
	viper.SetDefault("REGISTRY_SWEEP_INTERVAL", "1m")
	viper.SetDefault("LOG_LEVEL", "info")

	// Attempt to read .env file (non-fatal if missing)
	_ = viper.ReadInConfig()

	cfg := &Config{}
	cfg.Server.Port = viper.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = viper.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = viper.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.ShutdownTimeout = viper.GetDuration("SERVER_SHUTDOWN_TIMEOUT")
	cfg.Server.RateLimitRPS = viper.GetFloat64("SERVER_RATE_LIMIT_RPS")
	cfg.Server.RateLimitBurst = viper.GetInt("SERVER_RATE_LIMIT_BURST")
	cfg.Server.MaxBodyBytes = viper.GetInt64("SERVER_MAX_BODY_BYTES")
	cfg.Server.GinMode = viper.GetString("GIN_MODE")
	cfg.Runner.PoolSize = viper.GetInt("RUNNER_POOL_SIZE")
	cfg.Runner.TrainTimeout = viper.GetDuration("RUNNER_TRAIN_TIMEOUT")
	cfg.Registry.RetentionTTL = viper.GetDuration("REGISTRY_RETENTION_TTL")
	cfg.Registry.SweepInterval = viper.GetDuration("REGISTRY_SWEEP_INTERVAL")
	cfg.Log.Level = viper.GetString("LOG_LEVEL")

	return cfg, nil
}
