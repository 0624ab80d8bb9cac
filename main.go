// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Anypoint MQ Exporter polls a MuleSoft Anypoint MQ organization's
// admin and statistics APIs and republishes them as Prometheus
// metrics, alongside a small JSON control plane for discovery status,
// monitor inventory, and license-gated synthetic alert tests.
//
// # Application Architecture
//
// The application uses a concurrent, goroutine-based architecture:
//   - Main goroutine: coordinates startup, signal handling, and shutdown
//   - HTTP server goroutine: serves /actuator/prometheus, /actuator/health,
//     and the JSON control-plane endpoints
//   - Discovery goroutine: refreshes the tenant/environment snapshot
//   - Collection goroutine: fans out stats requests across every
//     (environment, region) pair and publishes gauges
//   - Monitor evaluation goroutine: evaluates monitor definitions
//     against the latest stats and dispatches triggered alerts
//   - Config watcher goroutine: reloads non-monitor settings on write
//
// # Startup Flow
//
//  1. Parse command-line flags (config path, listen address, -validate-config)
//  2. Load and validate configuration from YAML + environment variables
//  3. Initialize logger with configured log level
//  4. Wire the upstream client, discovery engine, collector, monitor
//     evaluator, notification dispatcher, license gate, and HTTP server
//  5. Start the HTTP server and the three periodic cycles
//
// # Graceful Shutdown
//
// The application handles SIGTERM and SIGINT for graceful shutdown:
//  1. Signal received
//  2. HTTP server stops accepting new connections (5s timeout)
//  3. Config watcher closed and main context canceled
//  4. Every periodic loop exits on its next context check
//  5. Wait for all goroutines to finish
//  6. Exit cleanly
//
// See config/config.go for the full configuration surface.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/netflexity/anypoint-mq-exporter/app"
	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	listenAddr := flag.String("listen-addr", ":9090", "Address for the HTTP server (metrics, health, control plane)")
	validateConfig := flag.Bool("validate-config", false, "Validate configuration file and exit")
	flag.Parse()

	if *validateConfig {
		os.Exit(performConfigValidation(*configPath))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Initialize("error")
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(cfg.Logging.Level)

	logger.Info().
		Str("base_url", cfg.BaseURL).
		Bool("auto_discovery", cfg.AutoDiscovery).
		Int("scrape_interval_seconds", cfg.Scrape.IntervalSeconds).
		Msg("Starting Anypoint MQ Exporter")

	application, err := app.New(cfg, *listenAddr, *configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}

	setupDebugSignalHandlers(application)

	application.Run()
}

// performConfigValidation validates the configuration file and returns
// an exit code: 0 if valid, 1 if invalid.
func performConfigValidation(configPath string) int {
	logger.Initialize("info")
	logger.Info().Str("path", configPath).Msg("Validating configuration file")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Configuration validation failed")
		fmt.Fprintf(os.Stderr, "\nConfiguration validation FAILED\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		return 1
	}

	if err := config.ValidateWithSchema(configPath); err != nil {
		logger.Error().Err(err).Msg("Configuration schema validation failed")
		fmt.Fprintf(os.Stderr, "\nConfiguration schema validation FAILED\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		return 1
	}

	fmt.Println("\nConfiguration validation PASSED")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Base URL: %s\n", cfg.BaseURL)
	fmt.Printf("  Organization ID: %s\n", cfg.OrganizationID)
	fmt.Printf("  Auto-discovery: %t\n", cfg.AutoDiscovery)
	fmt.Printf("  Environments: %v\n", cfg.Environments)
	fmt.Printf("  Regions: %v\n", cfg.Regions)
	fmt.Printf("  Scrape Interval: %ds\n", cfg.Scrape.IntervalSeconds)
	fmt.Printf("  Monitors Enabled: %t\n", cfg.Monitors.Enabled)
	fmt.Printf("  Monitor Definitions: %d\n", len(cfg.Monitors.Definitions))
	fmt.Printf("  Notification Channels: %d\n", len(cfg.Monitors.Notifications.Channels))
	fmt.Printf("  Log Level: %s\n", cfg.Logging.Level)

	if cfg.License.Key != "" {
		fmt.Println("  License Tier: pro")
	} else {
		fmt.Println("  License Tier: free")
	}

	fmt.Println("\nAll validation checks passed. Configuration is ready for use.")
	return 0
}
