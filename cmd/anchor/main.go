// Package main is the entry point for the anchor tool. It resolves
// project roots for file paths and can run a configured backend session
// for the resolved root.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/dshills/anchor/internal/config"
	"github.com/dshills/anchor/internal/root"
	"github.com/dshills/anchor/internal/session"
	"github.com/dshills/anchor/internal/session/proc"
	"github.com/dshills/anchor/internal/vfs"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath  string
	resolver    string
	markers     string
	server      string
	list        bool
	showVersion bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("anchor %s (%s)\n", version, commit)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if opts.list {
		listResolvers(cfg)
		return 0
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: anchor [flags] <path>")
		flag.PrintDefaults()
		return 1
	}
	path := flag.Arg(0)

	markers, ok := resolveMarkers(cfg, opts)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown resolver %q\n", opts.resolver)
		return 1
	}

	fsys := vfs.NewOSFS()
	rootDir, found := root.Pattern(markers...)(fsys, path)
	if !found {
		fmt.Fprintf(os.Stderr, "no project root found for %s\n", path)
		return 1
	}

	if opts.server == "" {
		fmt.Println(rootDir)
		return 0
	}

	return runSession(cfg, opts.server, rootDir)
}

// runSession starts the named backend server for a root and waits for
// it to terminate.
func runSession(cfg *config.Config, server, rootDir string) int {
	factory, err := cfg.Factory(server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	transport := proc.NewTransport()
	manager := session.NewManager(factory, transport)

	id, err := manager.Add(context.Background(), rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("session %s for %s\n", id, rootDir)

	handle, ok := transport.Get(id)
	if !ok {
		// Already exited.
		return 0
	}
	sess := handle.(*proc.Session)

	// Forward interrupt to the session for graceful teardown.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		sess.Kill()
	}()

	<-sess.Done()
	if err := sess.ExitErr(); err != nil {
		fmt.Fprintf(os.Stderr, "session exited: %v\n", err)
		return 1
	}
	return 0
}

// resolveMarkers picks the marker set from -markers or the named
// resolver in the configuration.
func resolveMarkers(cfg *config.Config, opts options) ([]string, bool) {
	if opts.markers != "" {
		var markers []string
		for _, m := range strings.Split(opts.markers, ",") {
			if m = strings.TrimSpace(m); m != "" {
				markers = append(markers, m)
			}
		}
		return markers, len(markers) > 0
	}
	return cfg.Markers(opts.resolver)
}

func listResolvers(cfg *config.Config) {
	names := make([]string, 0, len(cfg.Resolvers))
	for name := range cfg.Resolvers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%-10s %s\n", name, strings.Join(cfg.Resolvers[name], " "))
	}
}

func parseFlags() options {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.resolver, "resolver", "vcs", "Named resolver to use")
	flag.StringVar(&opts.markers, "markers", "", "Comma-separated marker names (overrides -resolver)")
	flag.StringVar(&opts.server, "run", "", "Start the named backend server for the resolved root")
	flag.BoolVar(&opts.list, "list", false, "List configured resolvers")
	flag.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	flag.Parse()

	return opts
}
