package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:3001"
	defaultTimeout = 10 * time.Second
)

// Settings are the client options, merged from defaults, the settings
// file, POMO_* environment variables and flags. Later sources win.
type Settings struct {
	Server   string
	Timeout  time.Duration
	LogFile  string
	LogLevel string
}

// DefaultSettingsPath is ~/.pomotodo/client.yaml.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pomotodo", "client.yaml")
}

func loadSettings(flags *pflag.FlagSet, configFile string) (Settings, error) {
	v := viper.New()
	v.SetDefault("server", defaultServer)
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("POMO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		"server":    "server",
		"timeout":   "timeout",
		"log_file":  "log-file",
		"log_level": "log-level",
	} {
		if f := flags.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Settings{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	explicit := configFile != ""
	if !explicit {
		configFile = DefaultSettingsPath()
	}
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil || explicit {
			v.SetConfigFile(configFile)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if !errors.As(err, &notFound) {
					return Settings{}, fmt.Errorf("read settings %s: %w", configFile, err)
				}
			}
		}
	}

	settings := Settings{
		Server:   strings.TrimRight(strings.TrimSpace(v.GetString("server")), "/"),
		Timeout:  v.GetDuration("timeout"),
		LogFile:  v.GetString("log_file"),
		LogLevel: v.GetString("log_level"),
	}
	if settings.Server == "" {
		return settings, errors.New("server URL must not be empty")
	}
	if settings.Timeout <= 0 {
		return settings, fmt.Errorf("timeout must be positive, got %s", settings.Timeout)
	}
	return settings, nil
}
