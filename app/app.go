// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package app wires the exporter's components together and owns the
// three independent periodic cycles: tenant/environment discovery,
// queue/exchange collection, and monitor evaluation.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/collector"
	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/discovery"
	"github.com/netflexity/anypoint-mq-exporter/httpapi"
	"github.com/netflexity/anypoint-mq-exporter/license"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
	"github.com/netflexity/anypoint-mq-exporter/notify"
	amqerrors "github.com/netflexity/anypoint-mq-exporter/pkg/errors"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
	"github.com/netflexity/anypoint-mq-exporter/upstream"
)

const (
	signalChannelSize = 1
	shutdownTimeout   = 5 * time.Second
	minCycleInterval  = time.Second
)

// App owns every long-running component and the goroutines that drive
// their periodic cycles.
type App struct {
	cfgMu sync.RWMutex
	cfg   *config.Config

	configPath string

	upstreamClient  *upstream.Client
	discoveryEngine *discovery.Engine
	collector       *collector.Scheduler
	evaluator       *monitor.Evaluator
	dispatcher      *notify.Dispatcher
	licenseGate     *license.Gate
	authStatus      *httpapi.AuthStatus
	httpServer      *http.Server
	configWatcher   *config.Watcher

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New wires every component from cfg. The exporter's HTTP server
// (metrics, control plane, health) listens on listenAddr.
func New(cfg *config.Config, listenAddr string, configPath string) (*App, error) {
	a := &App{
		cfg:        cfg,
		configPath: configPath,
		authStatus: &httpapi.AuthStatus{},
	}

	a.upstreamClient = upstream.New(cfg)
	a.discoveryEngine = discovery.New(a.upstreamClient, cfg)
	a.collector = collector.New(a.upstreamClient, a.discoveryEngine, cfg)

	definitions := make([]monitor.Definition, 0, len(cfg.Monitors.Definitions))
	for _, defCfg := range cfg.Monitors.Definitions {
		definitions = append(definitions, monitor.NewDefinition(defCfg, cfg.Monitors.Defaults))
	}
	a.evaluator = monitor.NewEvaluator(a.collector, definitions)

	a.dispatcher = notify.NewDispatcher(cfg.Monitors.Notifications.Channels)
	a.licenseGate = license.NewGate(cfg.License)

	server := httpapi.New(cfg, a.discoveryEngine, a.evaluator, a.dispatcher, a.licenseGate, a.authStatus)
	a.httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: server.Handler(),
	}

	var err error
	a.configWatcher, err = config.NewWatcher(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	return a, nil
}

// Run starts the HTTP server, the config watcher, and every periodic
// cycle, then blocks until a shutdown signal arrives.
func (a *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	a.ctx = ctx
	a.cancel = cancel
	defer a.cancel()

	a.startHTTPServer()
	a.setupSignalHandler()
	a.startConfigWatcher()

	a.wg.Add(1)
	go func() { defer a.wg.Done(); a.discoveryLoop(ctx) }()

	a.wg.Add(1)
	go func() { defer a.wg.Done(); a.collectionLoop(ctx) }()

	a.wg.Add(1)
	go func() { defer a.wg.Done(); a.monitorLoop(ctx) }()

	<-ctx.Done()
	a.performCleanup()
}

func (a *App) currentConfig() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg
}

// startHTTPServer starts the HTTP server serving /actuator/prometheus,
// /actuator/health, and the JSON control-plane endpoints.
func (a *App) startHTTPServer() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Info().Str("addr", a.httpServer.Addr).Msg("Starting HTTP server")
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()
}

// setupSignalHandler triggers graceful shutdown on SIGINT/SIGTERM.
func (a *App) setupSignalHandler() {
	sigChan := make(chan os.Signal, signalChannelSize)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		a.performGracefulShutdown()
	}()
}

// discoveryLoop refreshes the tenant/environment snapshot on a
// fixed-delay schedule: the next run starts refreshIntervalMs after
// the previous one finished, never mid-cycle.
func (a *App) discoveryLoop(ctx context.Context) {
	a.runCycle(ctx, func() { a.runDiscoveryCycle(ctx) }, func() time.Duration {
		ms := a.currentConfig().Discovery.RefreshIntervalMs
		if ms <= 0 {
			return minCycleInterval
		}
		return time.Duration(ms) * time.Millisecond
	})
}

func (a *App) runDiscoveryCycle(ctx context.Context) {
	err := a.discoveryEngine.Refresh(ctx)
	now := time.Now()
	switch {
	case err == nil:
		a.authStatus.RecordSuccess(now)
	case amqerrors.IsAuthFailedError(err):
		a.authStatus.RecordFailure(now, err)
		logger.Error().Err(err).Msg("Discovery refresh failed: authentication rejected")
	default:
		logger.Warn().Err(err).Msg("Discovery refresh failed")
	}
}

// collectionLoop runs collection cycles while scrape.enabled is true,
// on a fixed-delay schedule driven by scrape.intervalSeconds.
func (a *App) collectionLoop(ctx context.Context) {
	a.runCycle(ctx, func() {
		if !a.currentConfig().Scrape.Enabled {
			return
		}
		a.collector.RunCycle(ctx)
	}, func() time.Duration {
		seconds := a.currentConfig().Scrape.IntervalSeconds
		if seconds <= 0 {
			return minCycleInterval
		}
		return time.Duration(seconds) * time.Second
	})
}

// monitorLoop evaluates every monitor definition while monitors are
// both enabled in configuration and unlocked by the license tier, on a
// fixed-delay schedule driven by monitors.evaluationIntervalSeconds.
func (a *App) monitorLoop(ctx context.Context) {
	a.runCycle(ctx, func() {
		cfg := a.currentConfig()
		if !cfg.Monitors.Enabled || !a.licenseGate.MonitorsEnabled() {
			return
		}
		a.runMonitorCycle()
	}, func() time.Duration {
		seconds := a.currentConfig().Monitors.EvaluationIntervalSeconds
		if seconds <= 0 {
			return minCycleInterval
		}
		return time.Duration(seconds) * time.Second
	})
}

func (a *App) runMonitorCycle() {
	results := a.evaluator.RunCycle(time.Now())
	for _, result := range results {
		def, ok := a.evaluator.FindDefinition(result.MonitorName)
		if !ok {
			continue
		}
		if !a.evaluator.Gate(result, def.CooldownMinutes) {
			continue
		}
		if a.dispatcher.Dispatch(a.ctx, result) {
			a.evaluator.MarkNotified(result)
		}
	}
}

// runCycle runs work immediately, then again after each interval
// returned by nextDelay, using a timer rearmed only once the previous
// run has finished — a cycle never overlaps with itself.
func (a *App) runCycle(ctx context.Context, work func(), nextDelay func() time.Duration) {
	work()
	timer := time.NewTimer(nextDelay())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if ctx.Err() != nil {
				return
			}
			work()
			timer.Reset(nextDelay())
		}
	}
}

// startConfigWatcher reloads non-monitor configuration (scrape and
// discovery cadence, log level) on file changes. Monitor definitions,
// notification channels, and license keys are not hot-reloaded; they
// take effect on restart.
func (a *App) startConfigWatcher() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-a.ctx.Done():
				logger.Info().Msg("Config watcher goroutine shutting down")
				return
			case reloaded := <-a.configWatcher.Reloaded:
				if reloaded.Error != nil {
					logger.Error().Err(reloaded.Error).Msg("Error reloading configuration")
					continue
				}
				a.applyReloadedConfig(reloaded.Config)
			}
		}
	}()
}

func (a *App) applyReloadedConfig(next *config.Config) {
	a.cfgMu.Lock()
	previous := a.cfg
	monitorsChanged := !reflect.DeepEqual(previous.Monitors, next.Monitors)
	next.Monitors = previous.Monitors
	a.cfg = next
	a.cfgMu.Unlock()

	if monitorsChanged {
		logger.Warn().Msg("Reloaded configuration changes monitors.*, which is not hot-reloaded; restart to apply it")
	}

	logger.Initialize(next.Logging.Level)
	logger.Info().
		Int("scrape_interval_seconds", next.Scrape.IntervalSeconds).
		Int64("discovery_refresh_interval_ms", next.Discovery.RefreshIntervalMs).
		Bool("scrape_enabled", next.Scrape.Enabled).
		Msg("Configuration reloaded")
}

// DumpApplicationState logs a snapshot of discovery, collection, and
// monitor state in response to SIGUSR1.
func (a *App) DumpApplicationState() {
	logger.Info().Msg("=== APPLICATION STATE DUMP (SIGUSR1) ===")

	snap := a.discoveryEngine.Current()
	logger.Info().
		Str("root_tenant", snap.RootTenant.Name).
		Int("environments", len(snap.Environments)).
		Bool("discovery_complete", a.discoveryEngine.Complete()).
		Msg("Discovery state")

	queueStats := a.collector.CurrentQueueStats()
	logger.Info().Int("cached_queue_samples", len(queueStats)).Msg("Collector state")

	logger.Info().Int("tracked_monitor_states", a.evaluator.Store().Len()).Msg("Monitor evaluator state")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Info().
		Uint64("alloc_mb", m.Alloc/1024/1024).
		Uint64("total_alloc_mb", m.TotalAlloc/1024/1024).
		Uint32("num_gc", m.NumGC).
		Int("num_goroutines", runtime.NumGoroutine()).
		Msg("Runtime statistics")

	logger.Info().Msg("=== END STATE DUMP ===")
}

// DumpGoroutineStackTraces logs every goroutine's stack trace in
// response to SIGUSR2.
func DumpGoroutineStackTraces() {
	logger.Info().Msg("=== GOROUTINE STACK TRACES (SIGUSR2) ===")
	logger.Info().Int("num_goroutines", runtime.NumGoroutine()).Msg("Current goroutine count")

	buf := make([]byte, 1024*1024)
	stackLen := runtime.Stack(buf, true)
	logger.Info().Str("stack_traces", string(buf[:stackLen])).Msg("Full stack trace")

	logger.Info().Msg("=== END STACK TRACES ===")
}

// performGracefulShutdown stops accepting new HTTP connections, closes
// the config watcher, then cancels the main context so every periodic
// loop can exit.
func (a *App) performGracefulShutdown() {
	logger.Info().Msg("Initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server stopped")
	}

	a.configWatcher.Close()
	a.cancel()
}

// performCleanup waits for every goroutine to finish after the main
// context is canceled.
func (a *App) performCleanup() {
	logger.Info().Msg("Waiting for goroutines to finish...")
	a.wg.Wait()
	logger.Info().Msg("All goroutines finished, exiting")
}
