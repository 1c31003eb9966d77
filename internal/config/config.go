// Package config handles export configuration loading and management.
package config

import (
	"github.com/binzume/mmobj/internal/logger"
	"github.com/binzume/mmobj/obj"
	"github.com/binzume/mmobj/texture"
)

// Config holds all export settings.
type Config struct {
	Export  obj.Options     `yaml:"export" toml:"export"`
	Texture texture.Options `yaml:"texture" toml:"texture"`
	Logging LoggingConfig   `yaml:"logging" toml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string            `yaml:"level" toml:"level"`
	File  logger.FileConfig `yaml:"file" toml:"file"`
}

// Default returns a Config with the exporter defaults.
func Default() *Config {
	return &Config{
		Export:  *obj.DefaultOptions(),
		Texture: *texture.DefaultOptions(),
		Logging: LoggingConfig{
			Level: "info",
			File:  logger.DefaultFileConfig(""),
		},
	}
}
