package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Elevation ElevationConfig `mapstructure:"elevation"`
	Regions   RegionsConfig   `mapstructure:"regions"`
	Report    ReportConfig    `mapstructure:"report"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// NATSConfig configures result publishing. An empty URL disables it.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	Enabled     bool    `mapstructure:"enabled"`
}

// ElevationConfig configures the elevation lookup service.
type ElevationConfig struct {
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
	ProfilePoints   int           `mapstructure:"profile_points"`
}

// RegionsConfig selects where named region boundaries come from.
type RegionsConfig struct {
	Backend  string `mapstructure:"backend"`
	Path     string `mapstructure:"path"`
	NameKey  string `mapstructure:"name_key"`
	GroupKey string `mapstructure:"group_key"`
	Group    string `mapstructure:"group"`
}

type ReportConfig struct {
	Language string `mapstructure:"language"`
	PlotDir  string `mapstructure:"plot_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Region backends.
const (
	BackendGeoJSON  = "geojson"
	BackendPostgres = "postgres"
)

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: RELIEF_ELEVATION_URL → elevation.url
	v.SetEnvPrefix("RELIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 660) // above the 10m analysis limit
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "relief")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "relief")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("elevation.url", "https://api.open-elevation.com/api/v1/lookup")
	v.SetDefault("elevation.timeout", 30*time.Second)
	v.SetDefault("elevation.request_interval", 100*time.Millisecond)
	v.SetDefault("elevation.profile_points", 50)
	v.SetDefault("regions.backend", BackendGeoJSON)
	v.SetDefault("regions.path", "data/comunas.geojson")
	v.SetDefault("regions.name_key", "comuna")
	v.SetDefault("regions.group_key", "region")
	v.SetDefault("regions.group", "")
	v.SetDefault("report.language", "es")
	v.SetDefault("report.plot_dir", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Elevation.URL == "" {
		errs = append(errs, "elevation.url is required")
	}
	if c.Elevation.Timeout <= 0 {
		errs = append(errs, "elevation.timeout must be positive")
	}
	if c.Elevation.RequestInterval < 0 {
		errs = append(errs, "elevation.request_interval must not be negative")
	}
	if c.Elevation.ProfilePoints < 2 {
		errs = append(errs, fmt.Sprintf("elevation.profile_points must be at least 2, got %d", c.Elevation.ProfilePoints))
	}

	switch c.Regions.Backend {
	case BackendGeoJSON:
		if c.Regions.Path == "" {
			errs = append(errs, "regions.path is required for the geojson backend")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("regions.backend must be %q or %q, got %q",
			BackendGeoJSON, BackendPostgres, c.Regions.Backend))
	}

	switch strings.ToLower(c.Report.Language) {
	case "es", "en":
	default:
		errs = append(errs, fmt.Sprintf("report.language must be es or en, got %q", c.Report.Language))
	}
	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "otlp", "stdout":
		default:
			errs = append(errs, fmt.Sprintf("telemetry.exporter must be otlp or stdout, got %q", c.Telemetry.Exporter))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
