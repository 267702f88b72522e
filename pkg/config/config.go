/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/gse2/pkg/codec"
	"github.com/ssargent/gse2/pkg/gse2"
	"github.com/ssargent/gse2/pkg/logger"
)

// Config represents the gse2 toolkit configuration
type Config struct {
	Read    Read    `yaml:"read"`
	Write   Write   `yaml:"write"`
	Catalog Catalog `yaml:"catalog"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Read contains container reader defaults
type Read struct {
	VerifyChecksum bool `yaml:"verify_checksum"`
	ScanLimit      int  `yaml:"scan_limit"`
}

// Write contains container writer defaults
type Write struct {
	DataType  string `yaml:"data_type"`
	LineWidth int    `yaml:"line_width"`
}

// Catalog contains header catalog configuration
type Catalog struct {
	Dir string `yaml:"dir"`
}

// Server contains HTTP API configuration
type Server struct {
	Bind   string `yaml:"bind"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // Empty disables authentication
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Read: Read{
			VerifyChecksum: true,
			ScanLimit:      gse2.DefaultScanLimit,
		},
		Write: Write{
			DataType:  codec.DataTypeCM6,
			LineWidth: codec.DefaultLineWidth,
		},
		Catalog: Catalog{
			Dir: "./catalog",
		},
		Server: Server{
			Bind: "127.0.0.1",
			Port: 8090,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks that the configuration values are usable
func (c *Config) Validate() error {
	if c.Read.ScanLimit < 0 {
		return fmt.Errorf("read.scan_limit must not be negative: %d", c.Read.ScanLimit)
	}
	switch strings.ToUpper(c.Write.DataType) {
	case codec.DataTypeCM6, codec.DataTypeINT:
	default:
		return fmt.Errorf("write.data_type %q is not supported", c.Write.DataType)
	}
	if c.Write.LineWidth < 0 {
		return fmt.Errorf("write.line_width must not be negative: %d", c.Write.LineWidth)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported", c.Logging.Format)
	}
	return nil
}

// ReadOptions returns container read options from the read section
func (c *Config) ReadOptions() gse2.ReadOptions {
	return gse2.ReadOptions{
		VerifyChecksum: c.Read.VerifyChecksum,
		ScanLimit:      c.Read.ScanLimit,
	}
}

// WriteOptions returns container write options from the write section
func (c *Config) WriteOptions() gse2.WriteOptions {
	return gse2.WriteOptions{
		Encode: codec.EncodeOptions{
			DataType:  strings.ToUpper(c.Write.DataType),
			LineWidth: c.Write.LineWidth,
		},
	}
}

// Addr returns the server listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// LoadConfig loads configuration from the specified path. Missing keys keep
// their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600, the file may hold the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration to configPath. A non-empty
// catalogDir overrides the default catalog location. With withAPIKey set a
// random server API key is generated.
func BootstrapConfig(configPath string, catalogDir string, withAPIKey bool) (*Config, error) {
	config := DefaultConfig()
	if catalogDir != "" {
		config.Catalog.Dir = catalogDir
	}

	if withAPIKey {
		key, err := GenerateSecureKey(32) // 256 bits
		if err != nil {
			return nil, fmt.Errorf("failed to generate API key: %w", err)
		}
		config.Server.APIKey = key
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./gse2.yaml"
	}

	// ~/.config/gse2/config.yaml on Linux and macOS
	configDir := filepath.Join(homeDir, ".config", "gse2")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
