// Package config loads cropwatch settings from defaults, an optional YAML
// file, a .env file and CROPWATCH_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cropwatch/apperr"
	"cropwatch/classifier"
	"cropwatch/database"
)

const EnvPrefix = "CROPWATCH"

type Settings struct {
	Server struct {
		Port int    `mapstructure:"port"`
		Mode string `mapstructure:"mode"` // gin mode: debug, release or test
		CORS struct {
			Origins []string `mapstructure:"origins"`
		} `mapstructure:"cors"`
		RateLimit struct {
			RPS   float64 `mapstructure:"rps"` // 0 disables limiting
			Burst int     `mapstructure:"burst"`
		} `mapstructure:"ratelimit"`
	} `mapstructure:"server"`

	Storage struct {
		Driver string `mapstructure:"driver"`
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"storage"`

	Upload struct {
		MaxBytes int64 `mapstructure:"maxbytes"`
	} `mapstructure:"upload"`

	Analysis struct {
		Delay  time.Duration `mapstructure:"delay"`
		Seed   uint64        `mapstructure:"seed"` // 0 seeds from the clock
		JobTTL time.Duration `mapstructure:"jobttl"`
	} `mapstructure:"analysis"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Classifier struct {
		Schemes map[string][]classifier.Band `mapstructure:"schemes"`
	} `mapstructure:"classifier"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors.origins", []string{"*"})
	v.SetDefault("server.ratelimit.rps", 20.0)
	v.SetDefault("server.ratelimit.burst", 40)

	v.SetDefault("storage.driver", database.DriverMemory)
	v.SetDefault("storage.dsn", database.MemoryDSN)

	v.SetDefault("upload.maxbytes", 10<<20)

	v.SetDefault("analysis.delay", 2*time.Second)
	v.SetDefault("analysis.seed", 0)
	v.SetDefault("analysis.jobttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("classifier.schemes", map[string]any{})
}

// Load reads the settings. An empty path looks for cropwatch.yaml in the
// working directory and tolerates its absence; an explicit path must exist.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("cropwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate reports the first invalid setting.
func (s *Settings) Validate() error {
	switch {
	case s.Server.Port < 1 || s.Server.Port > 65535:
		return apperr.Invalidf("server.port %d out of range", s.Server.Port)
	case s.Server.RateLimit.RPS < 0:
		return apperr.Invalidf("server.ratelimit.rps must not be negative")
	case s.Server.RateLimit.RPS > 0 && s.Server.RateLimit.Burst < 1:
		return apperr.Invalidf("server.ratelimit.burst must be positive when limiting is enabled")
	case s.Storage.Driver != database.DriverMemory && s.Storage.Driver != database.DriverSQLite:
		return apperr.Invalidf("storage.driver %q is not one of %s, %s", s.Storage.Driver, database.DriverMemory, database.DriverSQLite)
	case s.Storage.DSN != database.MemoryDSN:
		return apperr.Invalidf("storage.dsn must be %q, images are never written to disk", database.MemoryDSN)
	case s.Upload.MaxBytes <= 0:
		return apperr.Invalidf("upload.maxbytes must be positive")
	case s.Analysis.Delay < 0:
		return apperr.Invalidf("analysis.delay must not be negative")
	case s.Analysis.JobTTL <= 0:
		return apperr.Invalidf("analysis.jobttl must be positive")
	case s.Analysis.JobTTL <= s.Analysis.Delay:
		return apperr.Invalidf("analysis.jobttl %s must exceed analysis.delay %s", s.Analysis.JobTTL, s.Analysis.Delay)
	case s.Log.Format != "text" && s.Log.Format != "json":
		return apperr.Invalidf("log.format %q is not text or json", s.Log.Format)
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return apperr.Invalidf("log.level %q: %v", s.Log.Level, err)
	}
	if _, err := s.Schemes(); err != nil {
		return err
	}
	return nil
}

// Schemes builds the configured threshold tables. Built-in schemes not named
// here keep their defaults.
func (s *Settings) Schemes() ([]*classifier.Scheme, error) {
	schemes, err := classifier.FromTables(s.Classifier.Schemes)
	if err != nil {
		return nil, fmt.Errorf("classifier.schemes: %w", err)
	}
	return schemes, nil
}

// Registry returns the built-in schemes overridden by the configured ones.
func (s *Settings) Registry() (*classifier.Registry, error) {
	schemes, err := s.Schemes()
	if err != nil {
		return nil, err
	}
	return classifier.NewRegistry(schemes...), nil
}
