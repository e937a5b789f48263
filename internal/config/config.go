// Package config loads shelf configuration from YAML, .env files and
// SHELF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	UI      UIConfig      `mapstructure:"ui" yaml:"ui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Data    DataConfig    `mapstructure:"data" yaml:"data"`
}

// ServerConfig locates the library backend
type ServerConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`                   // scheme and host
	BasePath    string `mapstructure:"base_path" yaml:"base_path"`       // API prefix
	UploadsPath string `mapstructure:"uploads_path" yaml:"uploads_path"` // where bare cover filenames live
}

// APIConfig tunes the HTTP client
type APIConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	PlaceholderCover string `mapstructure:"placeholder_cover" yaml:"placeholder_cover"`
	DefaultView      string `mapstructure:"default_view" yaml:"default_view"` // dashboard or list
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DataConfig holds local storage settings
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"` // empty keeps everything in memory
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://localhost:8080",
			BasePath:    "/library-management-system/api",
			UploadsPath: "/library-management-system/uploads",
		},
		API: APIConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 10,
			MaxRetries:        2,
			RetryDelay:        500 * time.Millisecond,
		},
		UI: UIConfig{
			PlaceholderCover: "https://images.unsplash.com/photo-1543002588-bfa74002ed7e?w=300&h=450&fit=crop",
			DefaultView:      "dashboard",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Data: DataConfig{
			Dir: defaultDataPath(),
		},
	}
}

func defaultLogPath() string {
	return filepath.Join(defaultDataPath(), "shelf.log")
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "shelf")
	}
}

// DefaultDir returns the default config directory for the current OS
func DefaultDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "shelf")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "shelf")
	}
}

// DefaultFile returns the default config file path
func DefaultFile() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults register every key so SHELF_* variables reach Unmarshal
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.base_path", cfg.Server.BasePath)
	v.SetDefault("server.uploads_path", cfg.Server.UploadsPath)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.requests_per_second", cfg.API.RequestsPerSecond)
	v.SetDefault("api.max_retries", cfg.API.MaxRetries)
	v.SetDefault("api.retry_delay", cfg.API.RetryDelay)
	v.SetDefault("ui.placeholder_cover", cfg.UI.PlaceholderCover)
	v.SetDefault("ui.default_view", cfg.UI.DefaultView)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("data.dir", cfg.Data.Dir)

	v.SetEnvPrefix("SHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. An empty path searches the default config
// directory and the working directory. A .env file in the working
// directory is applied to the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Data.Dir = expandHome(cfg.Data.Dir)
	return cfg, nil
}

// Save writes cfg to path (the default file when empty)
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultFile()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.base_path", cfg.Server.BasePath)
	v.Set("server.uploads_path", cfg.Server.UploadsPath)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("api.requests_per_second", cfg.API.RequestsPerSecond)
	v.Set("api.max_retries", cfg.API.MaxRetries)
	v.Set("api.retry_delay", cfg.API.RetryDelay.String())
	v.Set("ui.placeholder_cover", cfg.UI.PlaceholderCover)
	v.Set("ui.default_view", cfg.UI.DefaultView)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("data.dir", cfg.Data.Dir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
