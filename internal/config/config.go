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
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Clean    CleanConfig    `yaml:"clean" mapstructure:"clean"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Province ProvinceConfig `yaml:"province" mapstructure:"province"`
	Features FeaturesConfig `yaml:"features" mapstructure:"features"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates raw inputs and derived artifacts.
type PathsConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	InterimDir   string `yaml:"interim_dir" mapstructure:"interim_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
	BoundaryFile string `yaml:"boundary_file" mapstructure:"boundary_file"`
	FilePattern  string `yaml:"file_pattern" mapstructure:"file_pattern"`
}

// SourceConfig describes the fixed export format of the yearly files.
type SourceConfig struct {
	SkipRows        int    `yaml:"skip_rows" mapstructure:"skip_rows"`
	Encoding        string `yaml:"encoding" mapstructure:"encoding"`
	Years           []int  `yaml:"years" mapstructure:"years"`
	MissingToken    string `yaml:"missing_token" mapstructure:"missing_token"`
	AggregateMarker string `yaml:"aggregate_marker" mapstructure:"aggregate_marker"`
}

// CleanConfig configures the cleaning stage.
type CleanConfig struct {
	MissingPolicy string `yaml:"missing_policy" mapstructure:"missing_policy"`
}

// BoundaryConfig configures the boundary dataset.
type BoundaryConfig struct {
	NameProperty string `yaml:"name_property" mapstructure:"name_property"`
}

// ProvinceConfig optionally overrides the built-in province tables.
type ProvinceConfig struct {
	TableFile string `yaml:"table_file" mapstructure:"table_file"`
}

// FeaturesConfig configures the derived feature layer.
type FeaturesConfig struct {
	BaseYear       int              `yaml:"base_year" mapstructure:"base_year"`
	ComparisonYear int              `yaml:"comparison_year" mapstructure:"comparison_year"`
	IQRMultiplier  float64          `yaml:"iqr_multiplier" mapstructure:"iqr_multiplier"`
	TopN           int              `yaml:"top_n" mapstructure:"top_n"`
	Thresholds     ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
}

// ThresholdsConfig holds the GWh upper bounds of the consumption categories.
type ThresholdsConfig struct {
	VeryLow float64 `yaml:"very_low" mapstructure:"very_low"`
	Low     float64 `yaml:"low" mapstructure:"low"`
	Medium  float64 `yaml:"medium" mapstructure:"medium"`
	High    float64 `yaml:"high" mapstructure:"high"`
}

// StoreConfig configures the optional run ledger.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the dashboard data API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
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
	v.SetEnvPrefix("ELECTRICITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

// Defaults returns the configuration produced by Load with no file or
// environment overrides. Useful for tests and fixtures.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("paths.raw_dir", "data/raw")
	v.SetDefault("paths.interim_dir", "data/interim")
	v.SetDefault("paths.processed_dir", "data/processed")
	v.SetDefault("paths.boundary_file", "data/raw/indonesia_provinces.geojson")
	v.SetDefault("paths.file_pattern", "electricity_%d.csv")
	v.SetDefault("source.skip_rows", 2)
	v.SetDefault("source.encoding", "utf-8")
	v.SetDefault("source.years", []int{2020, 2021, 2022, 2023})
	v.SetDefault("source.missing_token", "-")
	v.SetDefault("source.aggregate_marker", "INDONESIA")
	v.SetDefault("clean.missing_policy", "drop")
	v.SetDefault("boundary.name_property", "Propinsi")
	v.SetDefault("province.table_file", "")
	v.SetDefault("features.base_year", 2020)
	v.SetDefault("features.comparison_year", 2023)
	v.SetDefault("features.iqr_multiplier", 1.5)
	v.SetDefault("features.top_n", 10)
	v.SetDefault("features.thresholds.very_low", 1000.0)
	v.SetDefault("features.thresholds.low", 5000.0)
	v.SetDefault("features.thresholds.medium", 15000.0)
	v.SetDefault("features.thresholds.high", 30000.0)
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the fields required by the given command mode.
// Modes: "pipeline", "serve", "publish".
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Source.SkipRows < 0 {
		errs = append(errs, "source.skip_rows must be >= 0")
	}
	if len(c.Source.Years) == 0 {
		errs = append(errs, "source.years must not be empty")
	}
	if !strings.Contains(c.Paths.FilePattern, "%d") {
		errs = append(errs, "paths.file_pattern must contain %d")
	}
	switch c.Clean.MissingPolicy {
	case "drop", "fill_zero", "fill_mean":
	default:
		errs = append(errs, "clean.missing_policy must be one of drop, fill_zero, fill_mean")
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		errs = append(errs, "store.driver must be sqlite or postgres")
	}
	t := c.Features.Thresholds
	if !(t.VeryLow < t.Low && t.Low < t.Medium && t.Medium < t.High) {
		errs = append(errs, "features.thresholds must be strictly increasing")
	}

	switch mode {
	case "pipeline":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "publish":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
