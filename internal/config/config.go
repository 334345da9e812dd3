// Package config loads service configuration from defaults, an optional
// config file, a .env file and PRESENSI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Upload   UploadConfig   `mapstructure:"upload"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// WebDir holds the static frontend. Empty disables it.
	WebDir string `mapstructure:"web_dir"`
	// PublicBaseURL prefixes photo URLs in reports, e.g. http://localhost:3000.
	PublicBaseURL string `mapstructure:"public_base_url"`
	Timezone      string `mapstructure:"timezone"`
}

type DatabaseConfig struct {
	// Driver is one of postgres, sqlite or memory.
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	SSO       SSOConfig     `mapstructure:"sso"`
}

type SSOConfig struct {
	Issuer       string `mapstructure:"issuer"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// Enabled reports whether OIDC login is configured.
func (c SSOConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

type UploadConfig struct {
	Dir               string `mapstructure:"dir"`
	MaxBytes          int64  `mapstructure:"max_bytes"`
	AllowedMIMEPrefix string `mapstructure:"allowed_mime_prefix"`
}

// Load reads configuration. configFile may be empty, in which case config.yaml
// is looked up in . and ./configs and its absence is not an error.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("PRESENSI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.web_dir", "")
	v.SetDefault("server.public_base_url", "http://localhost:3000")
	v.SetDefault("server.timezone", "Asia/Jakarta")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "presensi.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.sso.issuer", "")
	v.SetDefault("auth.sso.client_id", "")
	v.SetDefault("auth.sso.client_secret", "")
	v.SetDefault("auth.sso.redirect_url", "")

	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("upload.max_bytes", 5<<20)
	v.SetDefault("upload.allowed_mime_prefix", "image/")
}

// Validate checks settings that have no usable default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for driver %q", c.Database.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required (PRESENSI_AUTH_JWT_SECRET)")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New("upload.max_bytes must be positive")
	}
	if _, err := time.LoadLocation(c.Server.Timezone); err != nil {
		return fmt.Errorf("invalid server.timezone: %w", err)
	}
	if c.Auth.SSO.Enabled() && c.Auth.SSO.RedirectURL == "" {
		return errors.New("auth.sso.redirect_url is required when sso is enabled")
	}
	return nil
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
