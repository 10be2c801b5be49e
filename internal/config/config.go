package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string   `mapstructure:"port"`
	DBPath        string   `mapstructure:"dbPath"`
	CORSOrigins   []string `mapstructure:"corsOrigins"`
	MigrationsDir string   `mapstructure:"migrationsDir"`
	LogLevel      string   `mapstructure:"logLevel"`
}

func Default() Config {
	return Config{
		Port:        "3001",
		DBPath:      "./data/pomodoro.db",
		CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		LogLevel:    "info",
	}
}

// envKeys maps config keys to the environment variables that override them.
var envKeys = map[string]string{
	"port":          "PORT",
	"dbPath":        "DB_PATH",
	"corsOrigins":   "CORS_ORIGINS",
	"migrationsDir": "MIGRATIONS_DIR",
	"logLevel":      "LOG_LEVEL",
}

// Load layers defaults, the optional YAML file named by POMOTODO_CONFIG, and
// environment variables, in that order.
func Load() (Config, error) {
	defaults := Default()
	v := viper.New()
	v.SetDefault("port", defaults.Port)
	v.SetDefault("dbPath", defaults.DBPath)
	v.SetDefault("corsOrigins", defaults.CORSOrigins)
	v.SetDefault("migrationsDir", defaults.MigrationsDir)
	v.SetDefault("logLevel", defaults.LogLevel)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return defaults, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path := os.Getenv("POMOTODO_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return defaults, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOrigins = cleanList(cfg.CORSOrigins)
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaults.CORSOrigins
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %q", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("DB_PATH must not be empty")
	}
	return nil
}

// cleanList trims entries and drops blanks; CORS_ORIGINS arrives as one
// comma separated string.
func cleanList(values []string) []string {
	items := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
	}
	return items
}
