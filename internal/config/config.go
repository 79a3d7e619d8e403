// Package config handles loading the taskwatch.toml configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the taskwatch configuration file.
type Config struct {
	Database Database `toml:"database"`
	Sync     Sync     `toml:"sync"`
	Slack    Slack    `toml:"slack"`
	Line     Line     `toml:"line"`
	// LineWorks is spelled [lineworks] in the file.
	LineWorks LineWorks `toml:"lineworks"`
}

// Database locates the SQLite file.
type Database struct {
	Path string `toml:"path"`
}

// Sync tunes batch processing.
type Sync struct {
	// FanOut caps concurrent subject syncs within a batch.
	FanOut int `toml:"fan-out"`
}

// Slack holds Slack Web API credentials.
type Slack struct {
	Token string `toml:"token"`
}

// Line holds LINE Messaging API credentials.
type Line struct {
	Token string `toml:"token"`
}

// LineWorks holds LINE WORKS bot credentials.
type LineWorks struct {
	Token string `toml:"token"`
	BotID string `toml:"bot-id"`
}

// Load reads the global config file. A missing file yields an empty config;
// chat tools without credentials are simply not registered.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return loadFile(path)
}

// Path returns the global config file location.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "taskwatch", "config.toml"), nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &cfg, nil
}
