// Package config loads service settings from config.yaml, .env and CATALOG_* environment
// variables, in increasing order of priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap/zapcore"
)

const (
	EnvPrefix = "CATALOG_"

	minJWTSecretLen = 32
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Auth    AuthConfig    `koanf:"auth"`
}

type ServerConfig struct {
	Port              int           `koanf:"port"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	TrustForwardedFor bool          `koanf:"trust_forwarded_for"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Token   string `koanf:"token"`
}

type AuthConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	AdminUser         string        `koanf:"admin_user"`
	AdminPasswordHash string        `koanf:"admin_password_hash"`
	TokenTTL          time.Duration `koanf:"token_ttl"`
	LoginLimitPerMin  int           `koanf:"login_limit_per_min"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":                8082,
		"server.shutdown_timeout":    "10s",
		"server.trust_forwarded_for": false,
		"store.path":                 "products.json",
		"log.level":                  "info",
		"metrics.enabled":            false,
		"auth.admin_user":            "admin",
		"auth.token_ttl":             "15m",
		"auth.login_limit_per_min":   5,
	}
}

// Load reads configFile and envFile when they exist, then the process environment.
// Missing files are not an error.
func Load(configFile, envFile string) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			m := make(map[string]any, len(vars))
			for key, value := range vars {
				if strings.HasPrefix(key, EnvPrefix) {
					m[envKey(key)] = value
				}
			}
			if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
				return cfg, fmt.Errorf("load %s: %w", envFile, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return cfg, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps CATALOG_AUTH_JWT_SECRET to auth.jwt_secret: the first segment after the
// prefix names the section, the rest is the key.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("store.path is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Auth.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d chars", minJWTSecretLen)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Token == "" {
		return errors.New("metrics.token is required when metrics are enabled")
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
