// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package monitor evaluates MonitorDefinitions against the collector's
// latest stats snapshot and gates triggered results behind a per-state
// cooldown before they reach the notification dispatcher.
package monitor

import (
	"regexp"
	"strings"

	"github.com/netflexity/anypoint-mq-exporter/config"
)

// Definition is a merged, ready-to-evaluate monitor: config values with
// defaults applied and the target glob precompiled to a regular
// expression.
type Definition struct {
	Name                    string
	Type                    string
	Target                  *regexp.Regexp
	Condition               string
	Threshold               float64
	EvaluationWindowMinutes int
	CooldownMinutes         int
	Severity                string
	Channels                []string
	Enabled                 bool
}

// NewDefinition merges cfg with defaults (zero-valued window/cooldown
// fall back to the shared defaults) and compiles its target glob.
func NewDefinition(cfg config.MonitorDefinitionConfig, defaults config.MonitorDefaultsConfig) Definition {
	window := cfg.EvaluationWindowMinutes
	if window == 0 {
		window = defaults.EvaluationWindowMinutes
	}
	cooldown := cfg.CooldownMinutes
	if cooldown == 0 {
		cooldown = defaults.CooldownMinutes
	}

	return Definition{
		Name:                    cfg.Name,
		Type:                    cfg.Type,
		Target:                  globToRegex(cfg.Target),
		Condition:               cfg.Condition,
		Threshold:               cfg.Threshold,
		EvaluationWindowMinutes: window,
		CooldownMinutes:         cooldown,
		Severity:                cfg.Severity,
		Channels:                cfg.Channels,
		Enabled:                 cfg.Enabled,
	}
}

// globToRegex translates a glob pattern (`*` matches any run of
// characters, `?` matches exactly one, every other character including
// `.` is literal) into a whole-string-anchored regular expression.
func globToRegex(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// Matches reports whether a sanitized destination name matches this
// definition's target glob.
func (d Definition) Matches(name string) bool {
	return d.Target.MatchString(name)
}
