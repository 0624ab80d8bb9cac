// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/discovery"
	"github.com/netflexity/anypoint-mq-exporter/license"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
)

// DiscoverySource is the subset of discovery.Engine the API depends on.
type DiscoverySource interface {
	Current() discovery.Snapshot
	Regions() []string
	Complete() bool
	Refresh(ctx context.Context) error
}

// MonitorSource is the subset of monitor.Evaluator the API depends on.
type MonitorSource interface {
	Definitions() []monitor.Definition
	FindDefinition(name string) (monitor.Definition, bool)
	LatestResults() []monitor.Result
	Synthesize(name string, now time.Time) (monitor.Result, bool)
}

// Dispatcher is the subset of notify.Dispatcher the API depends on.
type Dispatcher interface {
	Dispatch(ctx context.Context, result monitor.Result) bool
}

// Server wires every downstream HTTP endpoint the exporter exposes.
type Server struct {
	cfg        *config.Config
	discovery  DiscoverySource
	monitors   MonitorSource
	dispatcher Dispatcher
	gate       *license.Gate
	authStatus *AuthStatus

	mux *http.ServeMux
}

// New builds a Server from its dependencies. None of the rate
// limiters are shared across endpoints; each control endpoint gets
// its own budget, matching the teacher's one-limiter-per-route style.
func New(cfg *config.Config, disc DiscoverySource, monitors MonitorSource, dispatcher Dispatcher, gate *license.Gate, authStatus *AuthStatus) *Server {
	s := &Server{
		cfg:        cfg,
		discovery:  disc,
		monitors:   monitors,
		dispatcher: dispatcher,
		gate:       gate,
		authStatus: authStatus,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the wired mux for use by an http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	discoverLimiter := rate.NewLimiter(1, 2)
	testLimiter := rate.NewLimiter(1, 5)
	healthLimiter := rate.NewLimiter(10, 20)

	s.mux.Handle("GET /actuator/prometheus", promhttp.Handler())
	s.mux.HandleFunc("GET /actuator/health", rateLimited(healthLimiter, s.handleHealth))
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/discover", rateLimited(discoverLimiter, s.handleDiscover))
	s.mux.HandleFunc("GET /api/monitors", s.handleListMonitors)
	s.mux.HandleFunc("GET /api/monitors/{name}", s.handleGetMonitor)
	s.mux.HandleFunc("POST /api/monitors/{name}/test", rateLimited(testLimiter, s.handleTestMonitor))
	s.mux.HandleFunc("GET /api/health-scores", s.handleHealthScores)
	s.mux.HandleFunc("GET /api/health-scores/{queueName}", s.handleHealthScoreByQueue)
	s.mux.HandleFunc("GET /api/license", s.handleLicense)
}

// rateLimited wraps a handler with a per-route token bucket, grounded
// on the teacher's rateLimitMiddleware.
func rateLimited(limiter *rate.Limiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			logger.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("Rate limit exceeded")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
