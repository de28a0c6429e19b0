// Package config holds the immutable settings consumed by a record
// store and by the arkiv server, plus YAML load/save helpers.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultStoreConfig and by LoadStoreConfig when a
// field is absent from the file.
const (
	DefaultCompressionLevel = 6
	DefaultMaxSize          = 1 << 20 // 1 MiB
	DefaultVersion          = "1.0.0"
)

var validate = validator.New()

// StoreConfig is the configuration for one record store. It is
// immutable after store construction and owned by exactly one store
// instance.
type StoreConfig struct {
	Name             string `yaml:"name" validate:"required"`
	Path             string `yaml:"path" validate:"required"`
	Password         string `yaml:"password,omitempty"`
	CompressionLevel int    `yaml:"compression_level" validate:"min=0,max=9"`
	MaxSize          int64  `yaml:"max_size" validate:"gt=0"`
	AutoCompact      bool   `yaml:"auto_compact"`
	Version          string `yaml:"version" validate:"required"`
}

// DefaultStoreConfig returns a StoreConfig for the given store name and
// container path with all defaults applied.
func DefaultStoreConfig(name, path string) StoreConfig {
	return StoreConfig{
		Name:             name,
		Path:             path,
		CompressionLevel: DefaultCompressionLevel,
		MaxSize:          DefaultMaxSize,
		AutoCompact:      true,
		Version:          DefaultVersion,
	}
}

// Encrypted reports whether a password is configured.
func (c StoreConfig) Encrypted() bool { return c.Password != "" }

// Validate checks the configuration against its declared constraints.
func (c StoreConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid store config: %w", err)
	}
	return nil
}

// ServerConfig configures the arkiv HTTP front end.
type ServerConfig struct {
	Bind    string `yaml:"bind" validate:"required"`
	Port    int    `yaml:"port" validate:"min=1,max=65535"`
	APIKey  string `yaml:"api_key,omitempty"`
	DataDir string `yaml:"data_dir" validate:"required"`
}

// DefaultServerConfig returns the server defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Bind:    "127.0.0.1",
		Port:    8080,
		DataDir: "./data",
	}
}

// Validate checks the server configuration.
func (c ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

// LoadStoreConfig reads a StoreConfig from a YAML file, applying
// defaults for absent fields.
func LoadStoreConfig(path string) (*StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := StoreConfig{
		CompressionLevel: DefaultCompressionLevel,
		MaxSize:          DefaultMaxSize,
		AutoCompact:      true,
		Version:          DefaultVersion,
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveStoreConfig writes cfg to path with restrictive permissions,
// creating the parent directory when needed. The file may carry a
// store password, hence 0600.
func SaveStoreConfig(cfg StoreConfig, path string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
