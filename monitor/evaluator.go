// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package monitor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/collector"
	"github.com/netflexity/anypoint-mq-exporter/pkg/metrics"
)

// StatsSource is the subset of collector.Scheduler the evaluator needs.
type StatsSource interface {
	CurrentQueueStats() []collector.QueueSample
}

// Result is one definition's verdict against one destination.
type Result struct {
	MonitorName string
	Type        string
	Destination string
	Environment string
	Region      string
	Triggered   bool
	Value       float64
	Threshold   float64
	Message     string
	Severity    string
	Channels    []string
	EvaluatedAt time.Time
	Metadata    map[string]interface{}
}

// Evaluator runs MonitorDefinitions against the collector's latest
// stats and tracks per-target State in its Store.
type Evaluator struct {
	source      StatsSource
	definitions []Definition
	store       *Store

	mu          sync.RWMutex
	lastResults []Result
}

// NewEvaluator builds an Evaluator over the given definitions.
func NewEvaluator(source StatsSource, definitions []Definition) *Evaluator {
	return &Evaluator{source: source, definitions: definitions, store: NewStore()}
}

// Store exposes the evaluator's state registry, e.g. for debug dumps.
func (e *Evaluator) Store() *Store { return e.store }

// Definitions returns the evaluator's configured monitor definitions,
// exposed for the HTTP API's inventory endpoints.
func (e *Evaluator) Definitions() []Definition { return e.definitions }

// FindDefinition looks up a configured definition by name.
func (e *Evaluator) FindDefinition(name string) (Definition, bool) {
	for _, def := range e.definitions {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}

// Synthesize builds a synthetic, always-triggered Result for name
// without touching any destination's cooldown state, for the
// license-gated POST /api/monitors/{name}/test endpoint.
func (e *Evaluator) Synthesize(name string, now time.Time) (Result, bool) {
	def, ok := e.FindDefinition(name)
	if !ok {
		return Result{}, false
	}
	return Result{
		MonitorName: def.Name,
		Type:        def.Type,
		Destination: "synthetic-test",
		Environment: "synthetic",
		Region:      "synthetic",
		Triggered:   true,
		Value:       def.Threshold,
		Threshold:   def.Threshold,
		Message:     fmt.Sprintf("synthetic test alert for monitor %q", def.Name),
		Severity:    def.Severity,
		Channels:    def.Channels,
		EvaluatedAt: now,
		Metadata:    map[string]interface{}{"synthetic": true},
	}, true
}

// LatestResults returns every result produced by the most recently
// completed RunCycle, the handoff the HTTP API reads from for
// /api/monitors and /api/health-scores.
func (e *Evaluator) LatestResults() []Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Result, len(e.lastResults))
	copy(out, e.lastResults)
	return out
}

// RunCycle evaluates every enabled definition against every matching
// destination in the current stats snapshot and returns every result,
// triggered or not. Callers forward triggered results to C6.
func (e *Evaluator) RunCycle(now time.Time) []Result {
	samples := e.source.CurrentQueueStats()
	var results []Result

	for _, def := range e.definitions {
		if !def.Enabled {
			continue
		}
		for _, sample := range samples {
			if !def.Matches(sample.Queue) {
				continue
			}
			key := Key{Monitor: def.Name, Destination: sample.Queue, Environment: sample.Environment, Region: sample.Region}
			state := e.store.GetOrCreate(key)
			result := e.evaluate(def, sample, state, now)
			result.Type = def.Type
			state.RecordResult(result.Triggered, now)
			results = append(results, result)
		}
	}

	e.mu.Lock()
	e.lastResults = results
	e.mu.Unlock()

	return results
}

func (e *Evaluator) evaluate(def Definition, sample collector.QueueSample, state *State, now time.Time) Result {
	base := Result{
		MonitorName: def.Name,
		Destination: sample.Queue,
		Environment: sample.Environment,
		Region:      sample.Region,
		Threshold:   def.Threshold,
		Severity:    def.Severity,
		Channels:    def.Channels,
		EvaluatedAt: now,
		Metadata:    map[string]interface{}{},
	}

	switch def.Type {
	case "QueueDepth":
		current := float64(sample.Stats.MessagesInQueue)
		state.AddValue(current)
		base.Value = current
		base.Triggered = evaluateCondition(def.Condition, current, def.Threshold)
		base.Message = fmt.Sprintf("queue depth %.0f %s threshold %.0f", current, def.Condition, def.Threshold)
		return base

	case "DlqAlert":
		current := float64(sample.Stats.MessagesInQueue)
		state.AddValue(current)
		base.Value = current
		base.Triggered = sample.IsDLQ && evaluateCondition(def.Condition, current, def.Threshold)
		base.Metadata["is_dlq"] = sample.IsDLQ
		base.Message = fmt.Sprintf("dead-letter queue depth %.0f %s threshold %.0f", current, def.Condition, def.Threshold)
		return base

	case "ThroughputDrop", "ThroughputSpike":
		current := float64(sample.Stats.MessagesReceived)
		state.AddValue(current)
		base.Value = current

		recentAvg, ok := state.RecentAverage(def.EvaluationWindowMinutes)
		baselineMean, _ := state.Baseline()
		if !ok || baselineMean == 0 {
			base.Message = "insufficient history for throughput comparison"
			return base
		}

		pctChange := ((recentAvg - baselineMean) / baselineMean) * 100
		base.Metadata["percentChange"] = pctChange
		if def.Type == "ThroughputDrop" {
			base.Triggered = pctChange <= def.Threshold
		} else {
			base.Triggered = pctChange >= def.Threshold
		}
		base.Message = fmt.Sprintf("throughput changed %.1f%% (threshold %.1f%%)", pctChange, def.Threshold)
		return base

	case "QueueHealth":
		baselineMean, baselineStdDev := state.Baseline()
		score := healthScore(sample, baselineMean, baselineStdDev)
		state.AddValue(float64(sample.Stats.MessagesInQueue))
		base.Value = score
		base.Triggered = evaluateCondition(def.Condition, score, def.Threshold)
		base.Message = fmt.Sprintf("health score %.2f %s threshold %.2f", score, def.Condition, def.Threshold)
		metrics.QueueHealthScore.WithLabelValues(sample.Queue, sample.Environment, sample.Region).Set(score / 100)
		return base

	default: // Custom never triggers.
		base.Message = "custom monitor type; no automatic evaluation"
		return base
	}
}

// healthScore computes the composite QueueHealth score in [0,100],
// using the destination's baseline (mean/stddev of its messagesInQueue
// history) captured before the current sample is folded in.
func healthScore(sample collector.QueueSample, baselineMean, baselineStdDev float64) float64 {
	score := 100.0

	depthPenalty := math.Min(20, math.Log10(float64(sample.Stats.MessagesInQueue)+1)*5)
	score -= depthPenalty

	if sample.IsDLQ && sample.Stats.MessagesInQueue > 0 {
		score -= 30
	}

	if sample.Stats.MessagesReceived > 0 {
		lagRatio := float64(sample.Stats.MessagesInFlight) / float64(sample.Stats.MessagesReceived)
		if lagRatio > 0.1 {
			score -= math.Min(25, lagRatio*50)
		}
	}

	if baselineMean > 0 {
		cv := baselineStdDev / baselineMean
		if cv > 0.5 {
			score -= math.Min(15, cv*20)
		}
	}

	return math.Max(0, math.Min(100, score))
}
