package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"yoyaku/internal/timegrid"
)

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Grid struct {
		OriginTime  string `yaml:"origin_time"`  // "09:00"
		SlotMinutes int    `yaml:"slot_minutes"` // 30
		Slots       int    `yaml:"slots"`        // 26
	} `yaml:"grid"`

	Booking struct {
		CancelCutoffHours int    `yaml:"cancel_cutoff_hours"`
		LimitedThreshold  int    `yaml:"limited_threshold"`
		Timezone          string `yaml:"timezone"`
	} `yaml:"booking"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	StudiosConfigPath string `yaml:"studios_config_path"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/yoyaku.db"
	}
	if cfg.StudiosConfigPath == "" {
		cfg.StudiosConfigPath = "configs/studios.yaml"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// CancelCutoff returns how long before its start a reservation stays
// cancellable by the customer.
func (c *Config) CancelCutoff() time.Duration {
	if c.Booking.CancelCutoffHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Booking.CancelCutoffHours) * time.Hour
}

// LimitedThreshold is the area-availability count at or below which a slot is
// reported as "limited" rather than "available".
func (c *Config) LimitedThreshold() int {
	if c.Booking.LimitedThreshold <= 0 {
		return 2
	}
	return c.Booking.LimitedThreshold
}

// SlotGrid builds the booking grid from config, falling back to the
// production default for missing or unparseable values.
func (c *Config) SlotGrid() timegrid.Grid {
	g := timegrid.Default
	if c.Grid.OriginTime != "" {
		if origin, err := timegrid.ParseClock(c.Grid.OriginTime); err == nil {
			g.Origin = origin
		}
	}
	if c.Grid.SlotMinutes > 0 {
		g.SlotMinutes = c.Grid.SlotMinutes
	}
	if c.Grid.Slots > 0 {
		g.Slots = c.Grid.Slots
	}
	return g
}

// Location resolves the configured business timezone.
func (c *Config) Location() *time.Location {
	if c.Booking.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
