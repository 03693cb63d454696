package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ReadyTimeout.Duration == 0 {
		c.ReadyTimeout.Duration = 60 * time.Second
	}
	if c.ReadyInterval.Duration == 0 {
		c.ReadyInterval.Duration = 2 * time.Second
	}
	if c.ProbeTimeout.Duration == 0 {
		c.ProbeTimeout.Duration = 5 * time.Second
	}
	if c.DiskThreshold == 0 {
		c.DiskThreshold = 80
	}
	if c.DiskPath == "" {
		c.DiskPath = c.DataDir
	}
}
