// Package config provides XML-based configuration for the display agent,
// loaded from the executable's directory.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ScreensAgent"`

	// Local control server
	Control ControlConfig `xml:"Control"`

	// Remote endpoints
	Remote RemoteConfig `xml:"Remote"`

	// Telemetry collector
	Telemetry TelemetryConfig `xml:"Telemetry"`

	// Local storage
	Storage StorageConfig `xml:"Storage"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ControlConfig contains the local control HTTP server settings
type ControlConfig struct {
	Port        int    `xml:"Port"`
	BindAddress string `xml:"BindAddress"`
}

// RemoteConfig contains the config host settings
type RemoteConfig struct {
	ConfigBaseURL       string `xml:"ConfigBaseURL"`
	FetchTimeoutSeconds int    `xml:"FetchTimeoutSeconds"`
	DefaultDeviceID     string `xml:"DefaultDeviceID"`
	ProvisionFile       string `xml:"ProvisionFile"`
}

// TelemetryConfig contains the log collector settings
type TelemetryConfig struct {
	BaseURL          string `xml:"BaseURL"`
	LoggerID         string `xml:"LoggerID"`
	RequestTimeoutMs int    `xml:"RequestTimeoutMs"`
}

// StorageConfig contains local state settings
type StorageConfig struct {
	DataDirectory string `xml:"DataDirectory"`
}

// AdvancedConfig contains tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Control: ControlConfig{
			Port:        8470,
			BindAddress: "0.0.0.0",
		},
		Remote: RemoteConfig{
			ConfigBaseURL:       "https://raw.githubusercontent.com/RMHEDGE/rm-displays/refs/heads/main",
			FetchTimeoutSeconds: 15,
			ProvisionFile:       "./provision.yaml",
		},
		Telemetry: TelemetryConfig{
			BaseURL:          "http://localhost:3000",
			LoggerID:         "screens-agent",
			RequestTimeoutMs: 5000,
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Screens Agent Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Control.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}
	if base := os.Getenv("TELEMETRY_URL"); base != "" {
		c.Telemetry.BaseURL = base
	}
	if base := os.Getenv("CONFIG_BASE_URL"); base != "" {
		c.Remote.ConfigBaseURL = base
	}
	if id := os.Getenv("DEVICE_ID"); id != "" {
		c.Remote.DefaultDeviceID = id
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Storage.DataDirectory) {
		c.Storage.DataDirectory = filepath.Join(configDir, c.Storage.DataDirectory)
	}
	if c.Remote.ProvisionFile != "" && !filepath.IsAbs(c.Remote.ProvisionFile) {
		c.Remote.ProvisionFile = filepath.Join(configDir, c.Remote.ProvisionFile)
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetControlAddr returns the control server bind address
func (c *AppConfig) GetControlAddr() string {
	return fmt.Sprintf("%s:%d", c.Control.BindAddress, c.Control.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Storage.DataDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Storage.DataDirectory, err)
	}
	return nil
}
