// Package config provides configuration management for MiSight
package config

import (
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "misight"

// Config holds the runtime configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Database DatabaseConfig
	Backend  BackendConfig
	Log      LogConfig

	// JWTSecretGenerated is set when no secret was configured and a random one was used
	JWTSecretGenerated bool
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AuthConfig holds authentication settings
type AuthConfig struct {
	JWTSecret        string
	AccessExpiry     time.Duration
	CookieName       string
	CookieSecure     bool
	SeedDemoAccounts bool
	DemoPassword     string
	JanitorSchedule  string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// DatabaseConfig holds settings for the portal account store
type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// BackendConfig points the portal at the MiSight REST backend
type BackendConfig struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// flagKeys maps command-line flag names onto configuration keys
var flagKeys = map[string]string{
	"port":        "server.port",
	"mode":        "server.mode",
	"backend-url": "backend.base_url",
	"db-driver":   "database.driver",
	"db-dsn":      "database.dsn",
	"log-level":   "log.level",
	"seed-demo":   "auth.seed_demo_accounts",
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")

	// Auth
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_expiry", "24h")
	v.SetDefault("auth.cookie_name", "misight_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.seed_demo_accounts", false)
	v.SetDefault("auth.demo_password", "")
	v.SetDefault("auth.janitor_schedule", "@every 10m")

	// CORS
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://localhost:8090")
	v.SetDefault("cors.allow_credentials", true)

	// Database
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "misight")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "misight")
	v.SetDefault("database.sslmode", "disable")

	// Backend
	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("backend.cache_ttl", "30s")

	v.SetDefault("log.level", "info")
}

// Load reads configuration from defaults, an optional YAML file, MISIGHT_* environment
// variables and finally the given flags. configFile may be empty to search the usual places.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("misight")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.AddConfigPath("/etc/misight")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Mode:         v.GetString("server.mode"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Auth: AuthConfig{
			JWTSecret:        v.GetString("auth.jwt_secret"),
			AccessExpiry:     v.GetDuration("auth.access_expiry"),
			CookieName:       v.GetString("auth.cookie_name"),
			CookieSecure:     v.GetBool("auth.cookie_secure"),
			SeedDemoAccounts: v.GetBool("auth.seed_demo_accounts"),
			DemoPassword:     v.GetString("auth.demo_password"),
			JanitorSchedule:  v.GetString("auth.janitor_schedule"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   stringList(v, "cors.allowed_origins"),
			AllowCredentials: v.GetBool("cors.allow_credentials"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("database.driver")),
			DSN:      v.GetString("database.dsn"),
			Host:     v.GetString("database.host"),
			Port:     v.GetString("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Backend: BackendConfig{
			BaseURL:  strings.TrimRight(v.GetString("backend.base_url"), "/"),
			Token:    v.GetString("backend.token"),
			Timeout:  v.GetDuration("backend.timeout"),
			CacheTTL: v.GetDuration("backend.cache_ttl"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsRelease reports whether the server runs in gin release mode
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

func (c *Config) validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}

	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres, mysql or sqlite, got %q", c.Database.Driver)
	}

	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}

	if c.Auth.AccessExpiry <= 0 {
		return fmt.Errorf("auth.access_expiry must be positive")
	}

	if c.Auth.JWTSecret == "" {
		if c.IsRelease() {
			return fmt.Errorf("auth.jwt_secret is required in release mode")
		}
		c.Auth.JWTSecret = GenerateJWTSecret()
		c.JWTSecretGenerated = true
	}
	return nil
}

// GenerateJWTSecret generates a secure random JWT secret
func GenerateJWTSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Errorf("read random secret: %w", err))
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// stringList accepts either a YAML list or a comma-separated string
func stringList(v *viper.Viper, key string) []string {
	if raw, ok := v.Get(key).(string); ok {
		return splitString(raw)
	}
	return v.GetStringSlice(key)
}

// splitString splits a comma-separated string into a slice
func splitString(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
