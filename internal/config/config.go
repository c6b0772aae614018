// Package config loads settings from a YAML file, the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StrategyBundled = "bundled"
	StrategyRemote  = "remote"

	envPrefix = "BIRYANI"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Model      ModelConfig      `mapstructure:"model"`
	Store      StoreConfig      `mapstructure:"store"`
	Preprocess PreprocessConfig `mapstructure:"preprocess"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type ModelConfig struct {
	Strategy   string       `mapstructure:"strategy"`
	BundleDir  string       `mapstructure:"bundle_dir"`
	Descriptor string       `mapstructure:"descriptor"`
	ORTLibrary string       `mapstructure:"ort_library"`
	Remote     RemoteConfig `mapstructure:"remote"`
}

type RemoteConfig struct {
	DescriptorURL string        `mapstructure:"descriptor_url"`
	WeightsURL    string        `mapstructure:"weights_url"`
	CacheDir      string        `mapstructure:"cache_dir"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	RedisAddr  string `mapstructure:"redis_addr"`
	RedisDB    int    `mapstructure:"redis_db"`
}

type PreprocessConfig struct {
	Transcode bool `mapstructure:"transcode"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MetricsConfig struct {
	StatsdAddr string   `mapstructure:"statsd_addr"`
	Tags       []string `mapstructure:"tags"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(10<<20))

	v.SetDefault("model.strategy", StrategyBundled)
	v.SetDefault("model.bundle_dir", "models")
	v.SetDefault("model.descriptor", "model.json")
	v.SetDefault("model.ort_library", "")
	v.SetDefault("model.remote.descriptor_url", "")
	v.SetDefault("model.remote.weights_url", "")
	v.SetDefault("model.remote.cache_dir", "cache/model")
	v.SetDefault("model.remote.timeout", 2*time.Minute)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "cache/state.db")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_db", 0)

	v.SetDefault("preprocess.transcode", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("metrics.statsd_addr", "")
	v.SetDefault("metrics.tags", []string{"service:biryani-api"})
}

// LoadDotEnv reads .env in development. A missing file is fine.
func LoadDotEnv() error {
	if env := os.Getenv("RUN_TIME_ENV"); env != "" && env != "dev" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// Load reads cfgFile when given, otherwise ./config.yaml if present, then
// applies BIRYANI_* environment overrides (BIRYANI_MODEL_STRATEGY, ...).
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Model.Strategy {
	case StrategyBundled:
		if c.Model.BundleDir == "" {
			return errors.New("model.bundle_dir is required for the bundled strategy")
		}
	case StrategyRemote:
		if c.Model.Remote.DescriptorURL == "" || c.Model.Remote.WeightsURL == "" {
			return errors.New("model.remote.descriptor_url and model.remote.weights_url are required for the remote strategy")
		}
		if c.Model.Remote.CacheDir == "" {
			return errors.New("model.remote.cache_dir is required for the remote strategy")
		}
	default:
		return fmt.Errorf("unknown model.strategy %q", c.Model.Strategy)
	}

	switch c.Store.Driver {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}
