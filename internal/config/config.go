// Package config handles updsync configuration parsing and location resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/scratch"
	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/workpool"
)

// EnvConfig names the environment variable pointing at a config file.
const EnvConfig = "UPDSYNC_CONFIG"

// Defaults for values the config file may omit.
const (
	DefaultAppRepo       = "Aliothmoon/MAA-Meow"
	DefaultAppResourceID = "MAA-Meow"
	DefaultResourceID    = "MaaResource"
	DefaultUserAgent     = "MAA-Meow"
	DefaultHTTPTimeout   = "30s"
)

// Config is the parsed configuration file.
type Config struct {
	Provider    string            `yaml:"provider" toml:"provider" json:"provider"`
	CDK         string            `yaml:"cdk,omitempty" toml:"cdk,omitempty" json:"cdk,omitempty"`
	ScratchDir  string            `yaml:"scratch_dir,omitempty" toml:"scratch_dir,omitempty" json:"scratch_dir,omitempty"`
	Workers     int               `yaml:"workers,omitempty" toml:"workers,omitempty" json:"workers,omitempty"`
	App         AppConfig         `yaml:"app" toml:"app" json:"app"`
	Resource    ResourceConfig    `yaml:"resource" toml:"resource" json:"resource"`
	GitHub      GitHubConfig      `yaml:"github" toml:"github" json:"github"`
	MirrorChyan MirrorChyanConfig `yaml:"mirrorchyan" toml:"mirrorchyan" json:"mirrorchyan"`
	HTTP        HTTPConfig        `yaml:"http" toml:"http" json:"http"`
	Log         LogConfig         `yaml:"log" toml:"log" json:"log"`
}

// AppConfig configures the app track.
type AppConfig struct {
	CurrentVersion string `yaml:"current_version" toml:"current_version" json:"current_version"`
	InstallPath    string `yaml:"install_path,omitempty" toml:"install_path,omitempty" json:"install_path,omitempty"`       // Copy the artifact here
	InstallCommand string `yaml:"install_command,omitempty" toml:"install_command,omitempty" json:"install_command,omitempty"` // Or run this with the artifact path appended
}

// ResourceConfig configures the resource track.
type ResourceConfig struct {
	Dir string `yaml:"dir" toml:"dir" json:"dir"` // Extraction destination holding version.json
}

// GitHubConfig configures the open-release provider.
type GitHubConfig struct {
	APIURL             string `yaml:"api_url,omitempty" toml:"api_url,omitempty" json:"api_url,omitempty"`
	AppRepo            string `yaml:"app_repo,omitempty" toml:"app_repo,omitempty" json:"app_repo,omitempty"` // owner/repo
	AssetSuffix        string `yaml:"asset_suffix,omitempty" toml:"asset_suffix,omitempty" json:"asset_suffix,omitempty"`
	ResourceArchiveURL string `yaml:"resource_archive_url,omitempty" toml:"resource_archive_url,omitempty" json:"resource_archive_url,omitempty"`
	ResourceRoot       string `yaml:"resource_root,omitempty" toml:"resource_root,omitempty" json:"resource_root,omitempty"`
}

// MirrorChyanConfig configures the gated mirror.
type MirrorChyanConfig struct {
	BaseURL       string `yaml:"base_url,omitempty" toml:"base_url,omitempty" json:"base_url,omitempty"`
	AppResourceID string `yaml:"app_resource_id,omitempty" toml:"app_resource_id,omitempty" json:"app_resource_id,omitempty"`
	ResourceID    string `yaml:"resource_id,omitempty" toml:"resource_id,omitempty" json:"resource_id,omitempty"`
	UserAgent     string `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
	OS            string `yaml:"os,omitempty" toml:"os,omitempty" json:"os,omitempty"`       // "auto" selects the running OS
	Arch          string `yaml:"arch,omitempty" toml:"arch,omitempty" json:"arch,omitempty"` // "auto" selects the running architecture
	Channel       string `yaml:"channel,omitempty" toml:"channel,omitempty" json:"channel,omitempty"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	File       string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
	JSON       bool   `yaml:"json,omitempty" toml:"json,omitempty" json:"json,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" toml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" toml:"max_backups,omitempty" json:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty" toml:"max_age_days,omitempty" json:"max_age_days,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = types.ProviderGitHub.String()
	}
	if c.ScratchDir == "" {
		if dir, err := scratch.DefaultDir(); err == nil {
			c.ScratchDir = dir
		}
	}
	if c.Workers == 0 {
		c.Workers = workpool.DefaultSize
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = provider.DefaultGitHubAPI
	}
	if c.GitHub.AppRepo == "" {
		c.GitHub.AppRepo = DefaultAppRepo
	}
	if c.GitHub.AssetSuffix == "" {
		c.GitHub.AssetSuffix = provider.DefaultAssetSuffix
	}
	if c.GitHub.ResourceArchiveURL == "" {
		c.GitHub.ResourceArchiveURL = provider.DefaultResourceArchiveURL
	}
	if c.GitHub.ResourceRoot == "" {
		c.GitHub.ResourceRoot = provider.DefaultResourceArchiveRoot
	}
	if c.MirrorChyan.BaseURL == "" {
		c.MirrorChyan.BaseURL = provider.DefaultMirrorBaseURL
	}
	if c.MirrorChyan.AppResourceID == "" {
		c.MirrorChyan.AppResourceID = DefaultAppResourceID
	}
	if c.MirrorChyan.ResourceID == "" {
		c.MirrorChyan.ResourceID = DefaultResourceID
	}
	if c.MirrorChyan.UserAgent == "" {
		c.MirrorChyan.UserAgent = DefaultUserAgent
	}
	if c.HTTP.Timeout == "" {
		c.HTTP.Timeout = DefaultHTTPTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ProviderType returns the configured provider.
func (c *Config) ProviderType() types.Provider {
	return types.Provider(c.Provider)
}

// Timeout returns the parsed HTTP timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Find searches for a config file in the standard locations.
// Returns the path to the first file found, or an error if none exists.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	searchPaths := []string{
		filepath.Join(xdgConfig, "updsync"),
		filepath.Join(home, ".updsync"),
	}

	fileNames := []string{
		"config.toml",
		"config.yaml",
		"config.yml",
		"config.json",
		"config",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", fmt.Errorf("no config file found in standard locations")
}

// Load reads, parses and validates a config file. Defaults are applied before
// validation.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, content)
}

// Parse parses and validates config content. name selects the format by
// extension; content is sniffed when the extension is not recognized.
func Parse(name string, content []byte) (*Config, error) {
	format := detectFormat(name, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", name)
	}

	cfg, err := parse(content, format)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
