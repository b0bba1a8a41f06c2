package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"yoyaku/internal/model"
	"yoyaku/internal/timegrid"
)

// StudioConfig represents a single studio in studios.yaml.
type StudioConfig struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Capacity  int           `yaml:"capacity"`
	IsActive  bool          `yaml:"is_active"`
	Equipment []string      `yaml:"equipment,omitempty"`
	Features  []string      `yaml:"features,omitempty"`
	Pricing   model.Pricing `yaml:"pricing"`
}

// HoursConfig represents default business hours for one weekday.
type HoursConfig struct {
	DayOfWeek int    `yaml:"day_of_week"` // 0=Sun .. 6=Sat
	IsClosed  bool   `yaml:"is_closed"`
	OpenTime  string `yaml:"open_time,omitempty"`
	CloseTime string `yaml:"close_time,omitempty"`
}

// AreaConfig groups the studios of one physical location.
type AreaConfig struct {
	Name    string         `yaml:"name"`
	Address string         `yaml:"address,omitempty"`
	Studios []StudioConfig `yaml:"studios"`
	Hours   []HoursConfig  `yaml:"hours,omitempty"`
}

// DefaultsConfig holds fallbacks applied to areas without explicit hours.
type DefaultsConfig struct {
	OpenTime  string `yaml:"open_time"`
	CloseTime string `yaml:"close_time"`
}

// StudiosConfig is the root of studios.yaml.
type StudiosConfig struct {
	Areas    map[string]AreaConfig `yaml:"areas"`
	Defaults DefaultsConfig        `yaml:"defaults"`
}

// LoadStudiosConfig loads and validates the studio catalog from YAML.
func LoadStudiosConfig(path string) (*StudiosConfig, error) {
	if path == "" {
		path = "configs/studios.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read studios config: %w", err)
	}

	var cfg StudiosConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse studios config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate studios config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *StudiosConfig) Validate() error {
	if len(c.Areas) == 0 {
		return fmt.Errorf("no areas defined")
	}

	ids := make(map[string]bool)
	for areaKey, area := range c.Areas {
		if len(area.Studios) == 0 {
			return fmt.Errorf("area %q: no studios defined", areaKey)
		}
		for i, s := range area.Studios {
			if s.ID == "" {
				return fmt.Errorf("area %q studio[%d]: id is required", areaKey, i)
			}
			if ids[s.ID] {
				return fmt.Errorf("area %q studio[%d]: duplicate id %q", areaKey, i, s.ID)
			}
			ids[s.ID] = true

			if s.Name == "" {
				return fmt.Errorf("studio %q: name is required", s.ID)
			}
			if err := validatePricing(s.Pricing, s.ID); err != nil {
				return err
			}
		}
		for i, h := range area.Hours {
			if h.DayOfWeek < 0 || h.DayOfWeek > 6 {
				return fmt.Errorf("area %q hours[%d]: day_of_week must be 0-6", areaKey, i)
			}
			if h.IsClosed {
				continue
			}
			if err := validateClockPair(h.OpenTime, h.CloseTime, fmt.Sprintf("area %q hours[%d]", areaKey, i)); err != nil {
				return err
			}
		}
	}

	if c.Defaults.OpenTime != "" || c.Defaults.CloseTime != "" {
		if err := validateClockPair(c.Defaults.OpenTime, c.Defaults.CloseTime, "defaults"); err != nil {
			return err
		}
	}
	return nil
}

func validatePricing(p model.Pricing, studioID string) error {
	switch p.Kind {
	case model.PricingPerSlot:
		if p.GeneralRate <= 0 || p.StudentRate <= 0 {
			return fmt.Errorf("studio %q: per_slot pricing requires general_rate and student_rate", studioID)
		}
	case model.PricingPerHour:
		if p.IndividualRate <= 0 || p.BandRate <= 0 {
			return fmt.Errorf("studio %q: per_hour pricing requires individual_rate and band_rate", studioID)
		}
	default:
		return fmt.Errorf("studio %q: pricing.kind must be per_slot or per_hour, got %q", studioID, p.Kind)
	}
	return nil
}

func validateClockPair(open, close, prefix string) error {
	if open == "" || close == "" {
		return fmt.Errorf("%s: open_time and close_time are required when not closed", prefix)
	}
	openC, err := timegrid.ParseClock(open)
	if err != nil {
		return fmt.Errorf("%s.open_time: %w", prefix, err)
	}
	closeC, err := timegrid.ParseClock(close)
	if err != nil {
		return fmt.Errorf("%s.close_time: %w", prefix, err)
	}
	if closeC <= openC {
		return fmt.Errorf("%s: close_time must be after open_time", prefix)
	}
	return nil
}

// applyDefaults fills missing weekday hours from the global defaults so each
// area always has 7 rows.
func (c *StudiosConfig) applyDefaults() {
	open := c.Defaults.OpenTime
	close := c.Defaults.CloseTime
	if open == "" {
		open = "09:00"
	}
	if close == "" {
		close = "22:00"
	}

	for key, area := range c.Areas {
		have := make(map[int]bool, 7)
		for _, h := range area.Hours {
			have[h.DayOfWeek] = true
		}
		for day := 0; day < 7; day++ {
			if !have[day] {
				area.Hours = append(area.Hours, HoursConfig{
					DayOfWeek: day,
					OpenTime:  open,
					CloseTime: close,
				})
			}
		}
		c.Areas[key] = area
	}
}

// ActiveStudios flattens the catalog to model studios, skipping inactive
// ones.
func (c *StudiosConfig) ActiveStudios() []model.Studio {
	var result []model.Studio
	now := time.Now()
	for areaKey, area := range c.Areas {
		for _, s := range area.Studios {
			if !s.IsActive {
				continue
			}
			result = append(result, model.Studio{
				ID:        s.ID,
				Area:      areaKey,
				Name:      s.Name,
				IsActive:  true,
				Capacity:  s.Capacity,
				Equipment: s.Equipment,
				Features:  s.Features,
				Pricing:   s.Pricing,
				UpdatedAt: now,
			})
		}
	}
	return result
}

// String returns a summary of the catalog.
func (c *StudiosConfig) String() string {
	studios, active := 0, 0
	for _, area := range c.Areas {
		for _, s := range area.Studios {
			studios++
			if s.IsActive {
				active++
			}
		}
	}
	return fmt.Sprintf("StudiosConfig: %d areas, %d studios (%d active)", len(c.Areas), studios, active)
}
