// Package config loads settings from flags, ZALOGA_* environment variables,
// an optional .env file and an optional zaloga.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/erazemk/zaloga/internal/db"
)

// Config holds all application configuration.
type Config struct {
	DataDir   string
	Addr      string
	Log       LogConfig
	Auth      AuthConfig
	Firestore FirestoreConfig
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level      string
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

type AuthConfig struct {
	// Secret verifies session tokens issued by the sign-in provider.
	Secret string
}

type FirestoreConfig struct {
	Project     string
	Database    string
	Credentials string
	Endpoint    string
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":           "data_dir",
	"addr":               "addr",
	"log":                "log.path",
	"auth-secret":        "auth.secret",
	"firestore-project":  "firestore.project",
	"firestore-endpoint": "firestore.endpoint",
}

// Load reads configuration. configFile may be empty, in which case
// zaloga.yaml is looked up in the working directory. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("ZALOGA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", ".")
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("auth.secret", "")
	v.SetDefault("firestore.project", "")
	v.SetDefault("firestore.database", "(default)")
	v.SetDefault("firestore.credentials", "")
	v.SetDefault("firestore.endpoint", "")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("zaloga")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %q: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{
		DataDir: v.GetString("data_dir"),
		Addr:    v.GetString("addr"),
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Path:       v.GetString("log.path"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
		},
		Auth: AuthConfig{
			Secret: v.GetString("auth.secret"),
		},
		Firestore: FirestoreConfig{
			Project:     v.GetString("firestore.project"),
			Database:    v.GetString("firestore.database"),
			Credentials: v.GetString("firestore.credentials"),
			Endpoint:    v.GetString("firestore.endpoint"),
		},
	}
	return cfg, nil
}

// DBPath returns the path of the item database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, db.FileName)
}

// CloudEnabled reports whether a Firestore project is configured.
func (c *Config) CloudEnabled() bool {
	return c.Firestore.Project != ""
}
