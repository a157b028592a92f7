package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/milad/co2info/internal/domain"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings shared by the co2info binaries.
type Config struct {
	CSVPath         string        `mapstructure:"csv_path"`
	UnhealthyPPM    float64       `mapstructure:"unhealthy_ppm"`
	MinPPM          float64       `mapstructure:"min_ppm"`
	MaxPPM          float64       `mapstructure:"max_ppm"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	GRPCTarget      string        `mapstructure:"grpc_target"`
	GRPCWaitTimeout time.Duration `mapstructure:"grpc_wait_timeout"`
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
}

// envKeys keeps the variable names the services have always read.
var envKeys = map[string][]string{
	"csv_path":          {"CSV_PATH"},
	"unhealthy_ppm":     {"CO2INFO_UNHEALTHY_PPM"},
	"min_ppm":           {"CO2INFO_MIN_PPM"},
	"max_ppm":           {"CO2INFO_MAX_PPM"},
	"grpc_addr":         {"GRPC_ADDR"},
	"grpc_target":       {"GRPC_TARGET"},
	"grpc_wait_timeout": {"GRPC_WAIT_TIMEOUT"},
	"http_addr":         {"HTTP_ADDR"},
	"metrics_addr":      {"METRICS_ADDR"},
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing precedence. An explicit path must exist; without
// one, co2info.yaml in the working directory is used if present.
//
// The result is not validated: callers apply their flag overrides first and
// then call Validate.
func Load(path string) (*Config, error) {
	v := viper.New()

	l := domain.DefaultLimits()
	v.SetDefault("csv_path", "")
	v.SetDefault("unhealthy_ppm", l.UnhealthyPPM)
	v.SetDefault("min_ppm", l.MinPPM)
	v.SetDefault("max_ppm", l.MaxPPM)
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("grpc_target", "127.0.0.1:9090")
	v.SetDefault("grpc_wait_timeout", "20s")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("metrics_addr", ":9091")

	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %q: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		log.Printf("using config file %s", v.ConfigFileUsed())
	} else {
		v.SetConfigName("co2info")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the limits describe a usable range.
func (c *Config) Validate() error {
	if c.MinPPM >= c.MaxPPM {
		return fmt.Errorf("%w: min_ppm (%v) must be below max_ppm (%v)", ErrInvalidConfig, c.MinPPM, c.MaxPPM)
	}
	if c.UnhealthyPPM < c.MinPPM || c.UnhealthyPPM > c.MaxPPM {
		return fmt.Errorf("%w: unhealthy_ppm (%v) must be within [%v, %v]", ErrInvalidConfig, c.UnhealthyPPM, c.MinPPM, c.MaxPPM)
	}
	if c.GRPCWaitTimeout < 0 {
		return fmt.Errorf("%w: grpc_wait_timeout must be >= 0", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) Limits() domain.Limits {
	return domain.Limits{
		UnhealthyPPM: c.UnhealthyPPM,
		MinPPM:       c.MinPPM,
		MaxPPM:       c.MaxPPM,
	}
}
