package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Source  SourceConfig  `yaml:"source" mapstructure:"source"`
	Summary SummaryConfig `yaml:"summary" mapstructure:"summary"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite database file.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SourceConfig locates the vector files read by refresh and region queries.
type SourceConfig struct {
	FiresPath      string `yaml:"fires_path" mapstructure:"fires_path"`
	BoundariesPath string `yaml:"boundaries_path" mapstructure:"boundaries_path"`
}

// SummaryConfig configures the ranked digest.
type SummaryConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit"`
}

// ServerConfig configures the query API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FIREWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "fires.db")
	v.SetDefault("source.fires_path", "MODIS_C6_1_USA_contiguous_and_Hawaii_48h.shp")
	v.SetDefault("source.boundaries_path", "cb_2018_us_state_500k.shp")
	v.SetDefault("summary.limit", 10)
	v.SetDefault("server.port", 5001)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that every setting needed to run is present and in range.
// All problems are reported together.
func (c *Config) Validate() error {
	var problems []string
	if c.Store.Path == "" {
		problems = append(problems, "store.path is required")
	}
	if c.Source.FiresPath == "" {
		problems = append(problems, "source.fires_path is required")
	}
	if c.Source.BoundariesPath == "" {
		problems = append(problems, "source.boundaries_path is required")
	}
	if c.Summary.Limit <= 0 {
		problems = append(problems, "summary.limit must be > 0")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be > 0 and <= 65535")
	}
	if len(problems) > 0 {
		return eris.Errorf("config: invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
