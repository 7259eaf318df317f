package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/admin-areas/internal/export"
)

// Config holds the full application configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	PostGIS PostGISConfig `yaml:"postgis" mapstructure:"postgis"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ExtractConfig configures the import, filter and export run.
type ExtractConfig struct {
	Input          string `yaml:"input" mapstructure:"input"`
	Output         string `yaml:"output" mapstructure:"output"`
	Format         string `yaml:"format" mapstructure:"format"`
	MaxAdminLevel  int    `yaml:"max_admin_level" mapstructure:"max_admin_level"`
	Language       string `yaml:"language" mapstructure:"language"`
	Workers        int    `yaml:"workers" mapstructure:"workers"`
	DecoderProcs   int    `yaml:"decoder_procs" mapstructure:"decoder_procs"`
	StagedSegments bool   `yaml:"staged_segments" mapstructure:"staged_segments"`
	Projection     string `yaml:"projection" mapstructure:"projection"`
	ReportPath     string `yaml:"report_path" mapstructure:"report_path"`
	MetricsPath    string `yaml:"metrics_path" mapstructure:"metrics_path"`
}

// PostGISConfig configures the PostGIS output.
type PostGISConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Schema      string `yaml:"schema" mapstructure:"schema"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MaxAdminLevel is the deepest admin_level OSM defines.
const MaxAdminLevel = 12

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADMINAREAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("extract.input", "")
	v.SetDefault("extract.output", "")
	v.SetDefault("extract.format", string(export.FormatGraph))
	v.SetDefault("extract.max_admin_level", 4)
	v.SetDefault("extract.language", "")
	v.SetDefault("extract.workers", 0)
	v.SetDefault("extract.decoder_procs", 0)
	v.SetDefault("extract.staged_segments", false)
	v.SetDefault("extract.projection", "identity")
	v.SetDefault("extract.report_path", "")
	v.SetDefault("extract.metrics_path", "")
	v.SetDefault("postgis.database_url", "")
	v.SetDefault("postgis.schema", "boundaries")
	v.SetDefault("postgis.batch_size", 50000)

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

// Validate checks the settings an extract run depends on.
func (c *Config) Validate() error {
	var errs []string

	e := c.Extract
	if e.Input == "" {
		errs = append(errs, "extract.input is required")
	}
	if e.MaxAdminLevel < 1 || e.MaxAdminLevel > MaxAdminLevel {
		errs = append(errs, "extract.max_admin_level must be between 1 and 12")
	}
	if e.Workers < 0 {
		errs = append(errs, "extract.workers must be >= 0")
	}
	if e.DecoderProcs < 0 {
		errs = append(errs, "extract.decoder_procs must be >= 0")
	}
	if _, err := export.ProjectionByName(e.Projection); err != nil {
		errs = append(errs, "extract.projection: "+err.Error())
	}

	format, err := export.ParseFormat(e.Format)
	switch {
	case err != nil:
		errs = append(errs, "extract.format: "+err.Error())
	case format == export.FormatPostGIS:
		if c.PostGIS.DatabaseURL == "" {
			errs = append(errs, "postgis.database_url is required for postgis output")
		}
		if c.PostGIS.BatchSize <= 0 {
			errs = append(errs, "postgis.batch_size must be > 0")
		}
	case e.Output == "":
		errs = append(errs, "extract.output is required for "+string(format)+" output")
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
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
