package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"shellac/src/catalog"
)

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		manager := NewManager(defaultCfg)
		if err := manager.EnsureDirectories(); err != nil {
			return nil, err
		}
		return manager, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Override with environment variables if set
	if key := os.Getenv("COVERART_API_KEY"); key != "" {
		cfg.CoverArt.Remote.Secret = &key
	}

	manager := NewManager(&cfg)
	if err := manager.EnsureDirectories(); err != nil {
		return nil, err
	}

	return manager, nil
}

// applyDefaults fills in zero values the decoder left behind so a
// sparse config file still yields a runnable setup.
func applyDefaults(cfg *Config) {
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 4
	}
	if cfg.Scan.Interval == 0 {
		cfg.Scan.Interval = Duration(time.Hour)
	}
	if cfg.Matcher.SimilarityThreshold == 0 {
		cfg.Matcher.SimilarityThreshold = catalog.DefaultSimilarityThreshold
	}
	if cfg.CoverArt.MaxEdge == 0 {
		cfg.CoverArt.MaxEdge = 1000
	}
	if cfg.CoverArt.Remote.RequestsPerSec == 0 {
		cfg.CoverArt.Remote.RequestsPerSec = 2
	}
	if cfg.CoverArt.Remote.Timeout == 0 {
		cfg.CoverArt.Remote.Timeout = Duration(10 * time.Second)
	}
	if cfg.CoverArt.Remote.CacheTTL == 0 {
		cfg.CoverArt.Remote.CacheTTL = Duration(24 * time.Hour)
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "text"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3535
	}
}

// saveDefaultConfig saves the default configuration to the specified file path
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()
	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	slog.Info("Default configuration saved", "path", path)
	return nil
}
