package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LogLevel string         `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig points at the hosted store. A libsql://, https:// or wss:// URL
// goes through the Turso client; anything else is treated as a local SQLite file.
type DatabaseConfig struct {
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

type StorageConfig struct {
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type TelegramConfig struct {
	Token    string `mapstructure:"token"`
	AdminIDs string `mapstructure:"admin_ids"`
}

type AuthConfig struct {
	AdminPassword string        `mapstructure:"admin_password"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	JWTTTL        time.Duration `mapstructure:"jwt_ttl"`
}

// env names kept from the first deployment
var envBindings = map[string]string{
	"server.port":             "PORT",
	"database.url":            "TURSO_DATABASE_URL",
	"database.auth_token":     "TURSO_AUTH_TOKEN",
	"storage.dir":             "STORAGE_DIR",
	"storage.public_base_url": "PUBLIC_BASE_URL",
	"telegram.token":          "TELEGRAM_TOKEN",
	"telegram.admin_ids":      "ADMIN_TELEGRAM_IDS",
	"auth.admin_password":     "ADMIN_PASSWORD",
	"auth.jwt_secret":         "JWT_SECRET",
	"auth.jwt_ttl":            "JWT_TTL",
	"log_level":               "LOG_LEVEL",
}

// Load reads .env (if any), config.yaml (if any) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.url", "rifas.db")
	v.SetDefault("database.auth_token", "")
	v.SetDefault("storage.dir", "data/storage")
	v.SetDefault("storage.public_base_url", "http://localhost:8080")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_ids", "")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_ttl", 24*time.Hour)
	v.SetDefault("log_level", "info")
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Database.IsRemote() && c.Database.AuthToken == "" {
		return errors.New("TURSO_AUTH_TOKEN must be set for a remote database")
	}
	if c.Auth.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// IsRemote reports whether the URL targets a hosted libsql endpoint.
func (d DatabaseConfig) IsRemote() bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(d.URL, prefix) {
			return true
		}
	}
	return false
}
