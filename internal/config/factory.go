package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/anchor/internal/session"
)

// Factory builds a session.Factory for a named server. The factory
// copies the server definition and, when the root directory contains a
// RootSettingsFile, merges its contents onto the server's settings.
func (c *Config) Factory(name string) (session.Factory, error) {
	srv, ok := c.Servers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}

	return func(rootDir string) (session.Config, error) {
		settings := srv.Settings
		if data, err := os.ReadFile(filepath.Join(rootDir, RootSettingsFile)); err == nil {
			merged, err := MergeSettings(settings, string(data))
			if err != nil {
				return session.Config{}, fmt.Errorf("merge %s: %w", RootSettingsFile, err)
			}
			settings = merged
		}

		cfg := session.Config{
			Command:  srv.Command,
			Args:     append([]string(nil), srv.Args...),
			Settings: settings,
		}
		if len(srv.Env) > 0 {
			cfg.Env = make(map[string]string, len(srv.Env))
			for k, v := range srv.Env {
				cfg.Env[k] = v
			}
		}
		return cfg, nil
	}, nil
}
