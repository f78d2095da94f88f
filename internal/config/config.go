// Package config loads staffdir settings.
//
// Settings start from Default, are overlaid by an optional YAML file and
// then by STAFFDIR_* environment variables, and are checked by Validate.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override, e.g. STAFFDIR_DATA_SOURCE.
const EnvPrefix = "STAFFDIR_"

// DefaultFile is read when no file is named and it exists in the working
// directory.
const DefaultFile = "staffdir.yaml"

// ErrInvalid marks configuration that failed to load or validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete set of settings.
type Config struct {
	Data    DataConfig    `yaml:"data" envPrefix:"DATA_"`
	Cache   CacheConfig   `yaml:"cache" envPrefix:"CACHE_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Auth    AuthConfig    `yaml:"auth" envPrefix:"AUTH_"`
	Render  RenderConfig  `yaml:"render" envPrefix:"RENDER_"`
	UI      UIConfig      `yaml:"ui" envPrefix:"UI_"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
}

// DataConfig locates the employee data resource.
type DataConfig struct {
	// Source is a file path or an http(s) URL.
	Source string `yaml:"source" env:"SOURCE"`

	// Watch reloads a file source when it changes.
	Watch bool `yaml:"watch" env:"WATCH"`
}

// CacheConfig controls the snapshot cache.
type CacheConfig struct {
	// Path is the SQLite database file. ":memory:" keeps nothing between
	// runs.
	Path string        `yaml:"path" env:"PATH"`
	TTL  time.Duration `yaml:"ttl" env:"TTL"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// SecureCookies marks the session cookie Secure. Enable behind TLS.
	SecureCookies bool `yaml:"secure_cookies" env:"SECURE_COOKIES"`
}

// AuthConfig holds the login gate settings.
type AuthConfig struct {
	// Users maps usernames to bcrypt hashes. Generate hashes with
	// "staffdir hash-password".
	Users map[string]string `yaml:"users" env:"USERS"`

	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET"`
	SessionTTL    time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
}

// RenderConfig holds asset paths used in markup.
type RenderConfig struct {
	CardPhotoDir    string `yaml:"card_photo_dir" env:"CARD_PHOTO_DIR"`
	DetailPhotoDir  string `yaml:"detail_photo_dir" env:"DETAIL_PHOTO_DIR"`
	Logo            string `yaml:"logo" env:"LOGO"`
	MessagingPrefix string `yaml:"messaging_prefix" env:"MESSAGING_PREFIX"`
}

// UIConfig holds interaction settings.
type UIConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

// LoggingConfig controls the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level       string `yaml:"level" env:"LEVEL"`
	Development bool   `yaml:"development" env:"DEVELOPMENT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Data: DataConfig{
			Source: "data/simpledata.json",
		},
		Cache: CacheConfig{
			Path: "staffdir.db",
			TTL:  30 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
		},
		Render: RenderConfig{
			CardPhotoDir:    "assets/images/coun",
			DetailPhotoDir:  "assets/images/Coun",
			Logo:            "assets/images/logo.png",
			MessagingPrefix: "https://wa.me/+200",
		},
		UI: UIConfig{
			Debounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from Default, the YAML file at path and the
// environment. An empty path reads DefaultFile if it exists. Every error
// wraps ErrInvalid.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ParseEnv applies STAFFDIR_* overrides to target. Unset variables leave
// fields untouched.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks value ranges. Errors wrap ErrInvalid.
func (c Config) Validate() error {
	var problems []string
	if c.Data.Source == "" {
		problems = append(problems, "data.source is empty")
	}
	if c.Cache.Path == "" {
		problems = append(problems, "cache.path is empty")
	}
	if c.Cache.TTL <= 0 {
		problems = append(problems, "cache.ttl must be positive")
	}
	if c.UI.Debounce <= 0 {
		problems = append(problems, "ui.debounce must be positive")
	}
	if c.Server.Addr == "" {
		problems = append(problems, "server.addr is empty")
	}
	if c.Auth.SessionTTL <= 0 {
		problems = append(problems, "auth.session_ttl must be positive")
	}
	if len(c.Auth.Users) > 0 && len(c.Auth.SessionSecret) < 32 {
		problems = append(problems, "auth.session_secret must be at least 32 bytes when users are configured")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
