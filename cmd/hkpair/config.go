package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type accessoryConfig struct {
	Id           string `yaml:"id"`
	URL          string `yaml:"url"`
	FeatureFlags string `yaml:"feature_flags"`
}

type config struct {
	Store string `yaml:"store"`

	Controller struct {
		Name string `yaml:"name"`
	} `yaml:"controller"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Timeout time.Duration `yaml:"timeout"`

	Accessories []accessoryConfig `yaml:"accessories"`
}

func defaultConfig() config {
	var cfg config
	cfg.Store = "./.store"
	cfg.Controller.Name = "hkpair"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Timeout = 30 * time.Second
	return cfg
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	for i, a := range cfg.Accessories {
		if a.Id == "" || a.URL == "" {
			return cfg, fmt.Errorf("read config %s: accessory %d needs id and url", path, i)
		}
	}

	return cfg, nil
}
