package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Env vars win over the optional YAML
// file so container deployments can override a baked-in default file.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`
	ORToolsURL  string `yaml:"ortoolsUrl"`
	APIKeys     string `yaml:"apiKeys"` // comma separated key:role pairs

	Solver SolverConfig `yaml:"solver"`
}

// SolverConfig carries the request-level solve defaults that the solve
// handler applies when a request leaves mode, algorithm or seed unset. The
// engine's schedule constants are not configurable.
type SolverConfig struct {
	DefaultMode      string `yaml:"defaultMode"`
	DefaultAlgorithm string `yaml:"defaultAlgorithm"`
	Seed             int64  `yaml:"seed"`
}

// Load reads CONFIG_PATH (if set) and applies env overrides.
func Load() (Config, error) {
	cfg := Config{
		Port: "8080",
		Solver: SolverConfig{
			DefaultMode:      "compare",
			DefaultAlgorithm: "enhanced-clarke-wright",
		},
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	overlay(&cfg.Port, "PORT")
	overlay(&cfg.DatabaseURL, "DATABASE_URL")
	overlay(&cfg.RedisURL, "REDIS_URL")
	overlay(&cfg.ORToolsURL, "ORTOOLS_URL")
	overlay(&cfg.APIKeys, "API_KEYS")
	return cfg, nil
}

func overlay(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
