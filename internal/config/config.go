package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration sourced from config.yaml,
// a local .env file and environment variables, in increasing priority.
type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`

	Storage struct {
		Driver        string `mapstructure:"driver"`
		LocalDir      string `mapstructure:"local_dir"`
		PublicBaseURL string `mapstructure:"public_base_url"`
		S3            struct {
			Bucket    string `mapstructure:"bucket"`
			Region    string `mapstructure:"region"`
			Endpoint  string `mapstructure:"endpoint"`
			AccessKey string `mapstructure:"access_key"`
			SecretKey string `mapstructure:"secret_key"`
		} `mapstructure:"s3"`
	} `mapstructure:"storage"`

	Assets struct {
		MaxBytes int64 `mapstructure:"max_bytes"`
	} `mapstructure:"assets"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// IsDev reports whether the service runs in development mode.
func (c Config) IsDev() bool {
	return c.App.Env == "dev"
}

// Load reads configuration. configPath may be empty; a missing config file
// or .env file is not an error.
func Load(configPath string) (Config, error) {
	// Local development convenience; real environment variables win.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Storage.Driver != "local" && cfg.Storage.Driver != "s3" {
		return Config{}, fmt.Errorf("storage.driver must be local or s3, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "s3" && cfg.Storage.S3.Bucket == "" {
		slog.Warn("storage.s3.bucket is not set")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.path", "./dev.db")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/files")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("assets.max_bytes", 5*1024*1024)
	v.SetDefault("metrics.enabled", true)
}
