// Package config loads the anchor configuration: named resolver marker
// sets, backend server definitions, and the install directory for
// fetched backend binaries.
//
// Configuration is TOML:
//
//	install_dir = "/home/me/.cache/anchor"
//
//	[resolver]
//	vcs = [".git"]
//	go = ["go.mod"]
//
//	[server.gopls]
//	command = "gopls"
//	args = ["serve"]
//	settings = '{"gofumpt": true}'
//
// Values can be overridden with ANCHOR_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrUnknownServer indicates a server name with no configuration.
var ErrUnknownServer = errors.New("no configuration for server")

// RootSettingsFile is the per-root settings override file looked up in
// a project root when building a session config.
const RootSettingsFile = ".anchor.json"

// Config is the top-level anchor configuration.
type Config struct {
	// InstallDir is where the installer collaborator places fetched
	// backend binaries. It is an explicit configuration value, never
	// process-global state.
	InstallDir string `toml:"install_dir"`

	// Resolvers maps resolver names to marker sets, e.g.
	// vcs = [".git"].
	Resolvers map[string][]string `toml:"resolver"`

	// Servers maps server names to backend definitions.
	Servers map[string]Server `toml:"server"`
}

// Server defines how to run one backend server.
type Server struct {
	// Command is the executable to run.
	Command string `toml:"command"`

	// Args are command-line arguments.
	Args []string `toml:"args"`

	// Env are additional environment variables.
	Env map[string]string `toml:"env"`

	// Settings is a JSON blob of backend settings. Per-root overrides
	// from RootSettingsFile are merged on top of it.
	Settings string `toml:"settings"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		InstallDir: defaultInstallDir(),
		Resolvers: map[string][]string{
			"vcs":      {".git", ".hg", ".svn"},
			"manifest": {"go.mod", "package.json", "Cargo.toml", "pyproject.toml"},
			"deps":     {"node_modules", "vendor"},
		},
		Servers: make(map[string]Server),
	}
}

// defaultInstallDir derives the install directory from the host's cache
// directory convention.
func defaultInstallDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(cache, "anchor")
}

// Markers returns the marker set for a named resolver.
func (c *Config) Markers(name string) ([]string, bool) {
	markers, ok := c.Resolvers[name]
	return markers, ok
}
