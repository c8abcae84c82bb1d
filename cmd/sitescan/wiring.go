package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sitescan/internal/browser"
	"github.com/olegrjumin/sitescan/internal/config"
	"github.com/olegrjumin/sitescan/internal/httpclient"
	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/tracker"
)

// loadConfig reads env and the optional config file, then applies the
// --engine flag when the command has one.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f := cmd.Flags().Lookup("engine"); f != nil && f.Changed {
		cfg.Engine = strings.ToLower(f.Value.String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. stderr keeps stdout free for reports.
func newLogger(cmd *cobra.Command, cfg *config.Config, toStderr bool) *logging.Logger {
	level := cfg.LogLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}

	opts := logging.Options{Level: level, Format: cfg.LogFormat, Service: "scanner"}
	if toStderr {
		opts.Output = os.Stderr
	}
	return logging.NewWithOptions(opts)
}

// buildRegistry returns the configured tracker registry, or the built-in one
func buildRegistry(cfg *config.Config) (*tracker.Registry, error) {
	if len(cfg.Trackers) == 0 {
		return tracker.Default(), nil
	}

	entries := make([]tracker.Entry, len(cfg.Trackers))
	for i, t := range cfg.Trackers {
		entries[i] = tracker.Entry{
			Domain:   t.Domain,
			Type:     t.Type,
			Risk:     tracker.RiskLevel(strings.ToLower(strings.TrimSpace(t.Risk))),
			Category: t.Category,
		}
	}
	return tracker.NewRegistry(entries)
}

// newLauncher picks the page engine named by cfg.Engine
func newLauncher(cfg *config.Config) (browser.Launcher, error) {
	switch cfg.Engine {
	case config.EngineStatic:
		client := httpclient.NewClient(httpclient.WithUserAgent(cfg.UserAgent))
		return browser.NewStaticLauncher(client, cfg.BrowserPoolSize), nil
	default:
		return browser.NewChromeLauncher(browser.ChromeOptions{
			PoolSize:  cfg.BrowserPoolSize,
			ExecPath:  cfg.ChromePath,
			UserAgent: cfg.UserAgent,
		})
	}
}

// newScanner wires registry, launcher and timings into a Scanner.
// The caller owns the returned launcher and must close it.
func newScanner(cfg *config.Config, logger *logging.Logger) (*scanner.Scanner, browser.Launcher, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tracker registry: %w", err)
	}

	launcher, err := newLauncher(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start %s engine: %w", cfg.Engine, err)
	}

	logger.Info("Scanner ready",
		"engine", cfg.Engine,
		"pool_size", cfg.BrowserPoolSize,
		"trackers", registry.Len(),
	)

	sc := scanner.New(launcher, tracker.NewClassifier(registry),
		scanner.WithLogger(logger),
		scanner.WithNavigationTimeout(cfg.NavigationTimeout),
		scanner.WithSettleDelay(cfg.SettleDelay),
		scanner.WithResponseWindow(cfg.ResponseWindow),
	)
	return sc, launcher, nil
}
