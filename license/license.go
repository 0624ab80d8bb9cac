// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package license gates pro-tier features behind a single
// configuration value. There is no external license-verification
// service in play: presence of a non-empty key is the gate.
package license

import "github.com/netflexity/anypoint-mq-exporter/config"

// Tier names reported by GET /api/license.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Gate is the capability predicate the monitor-evaluation cycle and
// the HTTP API consult at their own entry points. The notification
// dispatcher does not consult it.
type Gate struct {
	tier string
}

// NewGate builds a Gate from configuration.
func NewGate(cfg config.LicenseConfig) *Gate {
	tier := TierFree
	if cfg.Key != "" {
		tier = TierPro
	}
	return &Gate{tier: tier}
}

// Tier reports the active tier name.
func (g *Gate) Tier() string { return g.tier }

// MonitorsEnabled reports whether monitor evaluation (C5) may run.
func (g *Gate) MonitorsEnabled() bool { return g.tier == TierPro }

// SyntheticTestEnabled reports whether POST /api/monitors/{name}/test
// may dispatch a synthetic alert.
func (g *Gate) SyntheticTestEnabled() bool { return g.tier == TierPro }

// Features reports the named boolean flags GET /api/license exposes
// alongside the tier name.
func (g *Gate) Features() map[string]bool {
	return map[string]bool{
		"monitors":      g.MonitorsEnabled(),
		"syntheticTest": g.SyntheticTestEnabled(),
	}
}
