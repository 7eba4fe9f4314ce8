// Package cmd wires up the CLI flags and runs the redirect server.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"httpredirect/config"
	"httpredirect/internal/core"
	"httpredirect/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X httpredirect/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version and --dry-run output; tests swap it.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs the server until ctx is cancelled.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("httpredirect", flag.ContinueOnError)

	// ── listener ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.BindAddr, "bind", "b", cfg.BindAddr, "Bind to this address (default all interfaces)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Listen on this port")

	// ── engine ───────────────────────────────────────────────────
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Maximum simultaneous connections")
	fs.IntVar(&cfg.ReadBufferSize, "buffer-size", cfg.ReadBufferSize, "Bytes read per readiness event")
	fs.IntVar(&cfg.CacheCapacity, "cache-size", cfg.CacheCapacity, "Captive-portal cache slots")

	ttlSec := int(cfg.CacheTTL / time.Second)
	fs.IntVar(&ttlSec, "cache-ttl", ttlSec, "Seconds a client stays marked as probed")
	delayMs := int(cfg.PopulateDelay / time.Millisecond)
	fs.IntVar(&delayMs, "probe-delay", delayMs, "Milliseconds before a probing client is marked")

	// ── process ──────────────────────────────────────────────────
	fs.StringVarP(&cfg.User, "user", "u", cfg.User, "Drop privileges to this user after binding")
	verbose := 0
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate, print the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "httpredirect %s\n", version)
		return nil
	}

	cfg.CacheTTL = time.Duration(ttlSec) * time.Second
	cfg.PopulateDelay = time.Duration(delayMs) * time.Millisecond
	cfg.Verbose += verbose

	// ── positional arguments ─────────────────────────────────────
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		cfg.Destination = rest[0]
	default:
		return fmt.Errorf("only one destination may be given, got %d (use --help for usage)", len(rest))
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DryRun {
		fmt.Fprint(stdout, cfg.String())
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(ctx, cfg, logger, core.Options{})
	if err != nil {
		return err
	}
	if cfg.User != "" {
		if err := dropPrivileges(cfg.User); err != nil {
			mode.Close()
			return err
		}
		logger.Verbose("dropped privileges to %s", cfg.User)
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `httpredirect v%s

Answers every HTTP request with a redirect to a fixed destination and
plays along with Apple captive-portal detection.

Usage:
  httpredirect [options] <destination>

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  httpredirect portal.example.net              Redirect everything on :80
  httpredirect -b 10.0.0.1 -p 8080 login.lan   Bind one address and port
  httpredirect -u nobody portal.example.net    Drop root after binding
`)
}
