// Copyright 2025 James Ross
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Menu describes the milk/texture combinations the batching engine is
// allowed to group drinks on, plus the UI color hints for each milk.
type Menu struct {
	Milks      []string          `mapstructure:"milks"`
	Textures   []string          `mapstructure:"textures"`
	MilkColors map[string]string `mapstructure:"milk_colors"`
}

// Observability mirrors the teacher's shape: a metrics port and a log level.
type Observability struct {
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
}

// Persistence points at the on-disk SQLite file backing the Persistence
// Adapter (spec §4.5).
type Persistence struct {
	DBPath string `mapstructure:"db_path"`
}

type Config struct {
	Menu           Menu          `mapstructure:"menu"`
	SearchDepth    int           `mapstructure:"search_depth"`
	MaxBatchVolume float64       `mapstructure:"max_batch_volume"`
	Port           int           `mapstructure:"port"`
	Endpoint       string        `mapstructure:"endpoint"`
	Persistence    Persistence   `mapstructure:"persistence"`
	Observability  Observability `mapstructure:"observability"`
}

func defaultConfig() *Config {
	return &Config{
		Menu: Menu{
			Milks:    []string{"Whole", "Oat", "Soy", "Almond", "No Milk"},
			Textures: []string{"Wet", "Dry", "Foamed"},
			MilkColors: map[string]string{
				"Whole":   "#FFFDF5",
				"Oat":     "#E7CBA2",
				"Soy":     "#F2E8C9",
				"Almond":  "#EFE1CE",
				"No Milk": "#2B2B2B",
			},
		},
		SearchDepth:    5,
		MaxBatchVolume: 5.0,
		Port:           8000,
		Persistence: Persistence{
			DBPath: "./data/queue.db",
		},
		Observability: Observability{
			MetricsPort: 9090,
			LogLevel:    "info",
		},
	}
}

// Load reads configuration from a YAML file and env overrides, falling back
// to defaultConfig for anything unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultConfig()
	v.SetDefault("menu.milks", def.Menu.Milks)
	v.SetDefault("menu.textures", def.Menu.Textures)
	v.SetDefault("menu.milk_colors", def.Menu.MilkColors)
	v.SetDefault("search_depth", def.SearchDepth)
	v.SetDefault("max_batch_volume", def.MaxBatchVolume)
	v.SetDefault("port", def.Port)
	v.SetDefault("persistence.db_path", def.Persistence.DBPath)
	v.SetDefault("observability.metrics_port", def.Observability.MetricsPort)
	v.SetDefault("observability.log_level", def.Observability.LogLevel)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = uuid.New().String()[:8]
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks config constraints and returns an error on invalid settings.
func Validate(cfg *Config) error {
	if len(cfg.Menu.Milks) == 0 {
		return fmt.Errorf("menu.milks must be non-empty")
	}
	if len(cfg.Menu.Textures) == 0 {
		return fmt.Errorf("menu.textures must be non-empty")
	}
	if cfg.SearchDepth < 0 {
		return fmt.Errorf("search_depth must be >= 0")
	}
	if cfg.MaxBatchVolume <= 0 {
		return fmt.Errorf("max_batch_volume must be > 0")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be 1..65535")
	}
	if cfg.Persistence.DBPath == "" {
		return fmt.Errorf("persistence.db_path must be set")
	}
	if cfg.Observability.MetricsPort <= 0 || cfg.Observability.MetricsPort > 65535 {
		return fmt.Errorf("observability.metrics_port must be 1..65535")
	}
	return nil
}
