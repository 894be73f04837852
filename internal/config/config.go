package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const FileName = "hiveline.yml"

type Config struct {
	App struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
	} `yaml:"app" json:"app"`
	Notifications struct {
		DueSoonLookaheadDays int  `yaml:"due_soon_lookahead_days" json:"due_soon_lookahead_days"`
		OverdueReminders     bool `yaml:"overdue_reminders" json:"overdue_reminders"`
	} `yaml:"notifications" json:"notifications"`
	History struct {
		PageLimit    int `yaml:"page_limit" json:"page_limit"`
		MaxPageLimit int `yaml:"max_page_limit" json:"max_page_limit"`
	} `yaml:"history" json:"history"`
}

// Default returns the configuration used when no hiveline.yml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.Notifications.DueSoonLookaheadDays = 3
	cfg.Notifications.OverdueReminders = true
	cfg.History.PageLimit = 20
	cfg.History.MaxPageLimit = 50
	return cfg
}

func (c *Config) Validate() error {
	if c.Notifications.DueSoonLookaheadDays < 0 {
		return fmt.Errorf("notifications.due_soon_lookahead_days must be >= 0")
	}
	if c.History.PageLimit <= 0 {
		return fmt.Errorf("history.page_limit must be > 0")
	}
	if c.History.MaxPageLimit < c.History.PageLimit {
		return fmt.Errorf("history.max_page_limit must be >= history.page_limit")
	}
	return nil
}

func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads hiveline.yml from the workspace, falling back to defaults when
// the file is absent.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the workspace.
func Save(workspace string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(workspace), data, 0o644)
}
