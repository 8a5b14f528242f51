package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file looked up in the working and home directories.
const DefaultConfigFile = ".spidersearch.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Environment variables read by ApplyEnv.
const (
	EnvDBDriver      = "SPIDERSEARCH_DB_DRIVER"
	EnvDBHost        = "SPIDERSEARCH_DB_HOST"
	EnvDBPort        = "SPIDERSEARCH_DB_PORT"
	EnvDBName        = "SPIDERSEARCH_DB_NAME"
	EnvDBUser        = "SPIDERSEARCH_DB_USER"
	EnvDBPassword    = "SPIDERSEARCH_DB_PASSWORD"
	EnvDBPath        = "SPIDERSEARCH_DB_PATH"
	EnvSeed          = "SPIDERSEARCH_SEED"
	EnvRedisAddr     = "SPIDERSEARCH_REDIS_ADDR"
	EnvRedisPassword = "SPIDERSEARCH_REDIS_PASSWORD"
)

// LoadConfigFile reads a YAML file on top of the defaults.
// Keys missing from the file keep their default value.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := NewConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// FindConfigFile returns the first existing configuration file, searching
//  1. configPath, when given
//  2. ./.spidersearch.yaml
//  3. $XDG_CONFIG_HOME/spidersearch/config.yaml
//  4. ~/.spidersearch.yaml
//
// It returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are not overwritten. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from environment variables. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str(EnvDBDriver, &c.Database.Driver)
	str(EnvDBHost, &c.Database.Host)
	str(EnvDBName, &c.Database.Name)
	str(EnvDBUser, &c.Database.User)
	str(EnvDBPassword, &c.Database.Password)
	str(EnvDBPath, &c.Database.Path)
	str(EnvSeed, &c.Spider.Seed)
	str(EnvRedisAddr, &c.Server.RedisAddr)
	str(EnvRedisPassword, &c.Server.RedisPassword)

	if v, ok := lookup(EnvDBPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDBPort, err)
		}
		c.Database.Port = port
	}
	return nil
}
