package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads configuration from a TOML file, layered over the defaults
// and under ANCHOR_* environment overrides. A missing file is not an
// error; an empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No file, defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv applies ANCHOR_* environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANCHOR_INSTALL_DIR"); v != "" {
		cfg.InstallDir = v
	}
}
