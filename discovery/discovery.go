// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package discovery builds the tenant/environment snapshot that the
// collector polls each cycle.
//
// On a fixed-delay schedule it calls the upstream client's listSelf and
// listEnvironments operations, then atomically replaces the prior
// snapshot. A single tenant's failure is logged and skipped rather than
// aborting the whole cycle.
package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
	"github.com/netflexity/anypoint-mq-exporter/pkg/metrics"
	"github.com/netflexity/anypoint-mq-exporter/upstream"
)

// Lister is the subset of upstream.Client that discovery depends on.
type Lister interface {
	ListSelf(ctx context.Context) (upstream.TenantSnapshot, error)
	ListEnvironments(ctx context.Context, tenant upstream.TenantRef) ([]upstream.EnvironmentRef, error)
}

// Snapshot is the current view of reachable tenants and environments.
type Snapshot struct {
	RootTenant   upstream.TenantRef
	Environments []upstream.EnvironmentRef
}

// Engine owns the current Snapshot and knows how to refresh it.
type Engine struct {
	client Lister

	autoDiscovery  bool
	configuredRoot string
	staticEnvs     []string
	regions        []string

	mu       sync.RWMutex
	snapshot Snapshot
	complete bool
}

// New creates an Engine. When cfg.AutoDiscovery is false, the
// configured environment names become the permanent snapshot and
// Refresh becomes a no-op after the first call.
func New(client Lister, cfg *config.Config) *Engine {
	return &Engine{
		client:         client,
		autoDiscovery:  cfg.AutoDiscovery,
		configuredRoot: cfg.OrganizationID,
		staticEnvs:     cfg.Environments,
		regions:        cfg.Regions,
	}
}

// Refresh produces a new snapshot and atomically replaces the old one.
// When auto-discovery is disabled it builds the static snapshot once
// and marks discovery complete immediately on every subsequent call.
func (e *Engine) Refresh(ctx context.Context) error {
	if !e.autoDiscovery {
		e.mu.Lock()
		if !e.complete {
			e.snapshot = e.staticSnapshot()
			e.complete = true
			metrics.DiscoveredTenants.Set(1)
			metrics.DiscoveredEnvironments.Set(float64(len(e.snapshot.Environments)))
		}
		e.mu.Unlock()
		return nil
	}

	start := time.Now()
	defer func() { metrics.DiscoveryDuration.Observe(time.Since(start).Seconds()) }()

	self, err := e.client.ListSelf(ctx)
	if err != nil {
		return err
	}

	root := self.RootTenant
	e.mu.RLock()
	existingRoot := e.snapshot.RootTenant
	e.mu.RUnlock()
	if e.configuredRoot != "" {
		root = upstream.TenantRef{ID: e.configuredRoot, Name: existingRoot.Name}
	}

	tenants := append([]upstream.TenantRef{root}, self.MemberTenants...)
	var envs []upstream.EnvironmentRef
	for _, tenant := range tenants {
		tenantEnvs, err := e.client.ListEnvironments(ctx, tenant)
		if err != nil {
			logger.Warn().Err(err).Str("tenant_id", tenant.ID).Msg("Failed to list environments for tenant, skipping")
			continue
		}
		envs = append(envs, tenantEnvs...)
	}

	e.mu.Lock()
	e.snapshot = Snapshot{RootTenant: root, Environments: envs}
	e.complete = true
	if e.configuredRoot == "" {
		e.configuredRoot = root.ID
	}
	e.mu.Unlock()

	metrics.DiscoveredTenants.Set(float64(len(tenants)))
	metrics.DiscoveredEnvironments.Set(float64(len(envs)))
	return nil
}

// staticSnapshot builds a snapshot straight from configuration, used
// when auto-discovery is disabled.
func (e *Engine) staticSnapshot() Snapshot {
	root := upstream.TenantRef{ID: e.configuredRoot}
	envs := make([]upstream.EnvironmentRef, 0, len(e.staticEnvs))
	for _, name := range e.staticEnvs {
		envs = append(envs, upstream.EnvironmentRef{
			ID:     name,
			Name:   name,
			Tenant: root,
		})
	}
	return Snapshot{RootTenant: root, Environments: envs}
}

// Current returns the most recently published snapshot.
func (e *Engine) Current() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot
}

// Regions returns the configured region set to pair against each
// environment during collection.
func (e *Engine) Regions() []string {
	return e.regions
}

// Complete reports whether at least one snapshot has been published.
func (e *Engine) Complete() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.complete
}
