// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/collector"
)

type fakeStatsSource struct {
	samples []collector.QueueSample
}

func (f fakeStatsSource) CurrentQueueStats() []collector.QueueSample { return f.samples }

func TestEvaluator_DlqAlertTriggersAndRespectsCooldown(t *testing.T) {
	source := fakeStatsSource{samples: []collector.QueueSample{
		{Queue: "orders-dlq", Environment: "Prod", Region: "us-east-1", IsDLQ: true, Stats: upstreamQueueStats(3)},
	}}
	def := Definition{
		Name: "dlq-watch", Type: "DlqAlert", Target: globToRegex("*-dlq"),
		Condition: "GT", Threshold: 0, CooldownMinutes: 15, Enabled: true,
	}
	e := NewEvaluator(source, []Definition{def})

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	results1 := e.RunCycle(t0)
	if len(results1) != 1 || !results1[0].Triggered {
		t.Fatalf("first cycle results = %+v, want one triggered result", results1)
	}
	if !e.Gate(results1[0], def.CooldownMinutes) {
		t.Error("first trigger should pass the cooldown gate")
	}
	e.MarkNotified(results1[0])

	results2 := e.RunCycle(t0.Add(5 * time.Minute))
	if !results2[0].Triggered {
		t.Fatal("second cycle should still be triggered (same value)")
	}
	if e.Gate(results2[0], def.CooldownMinutes) {
		t.Error("second trigger 5 minutes later should be suppressed by cooldown")
	}

	results3 := e.RunCycle(t0.Add(20 * time.Minute))
	if !e.Gate(results3[0], def.CooldownMinutes) {
		t.Error("third trigger 20 minutes after the first notification should pass")
	}
}

func TestEvaluator_GateWithoutMarkNotifiedDoesNotConsumeCooldown(t *testing.T) {
	source := fakeStatsSource{samples: []collector.QueueSample{
		{Queue: "orders-dlq", Environment: "Prod", Region: "us-east-1", IsDLQ: true, Stats: upstreamQueueStats(3)},
	}}
	def := Definition{
		Name: "dlq-watch", Type: "DlqAlert", Target: globToRegex("*-dlq"),
		Condition: "GT", Threshold: 0, CooldownMinutes: 15, Enabled: true,
	}
	e := NewEvaluator(source, []Definition{def})

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	results := e.RunCycle(t0)

	if !e.Gate(results[0], def.CooldownMinutes) {
		t.Fatal("first gate check should pass")
	}
	if !e.Gate(results[0], def.CooldownMinutes) {
		t.Error("a gate check that was never followed by MarkNotified must not suppress the next check (dispatch never happened)")
	}
}

func TestEvaluator_ThroughputDropComputesPercentChange(t *testing.T) {
	def := Definition{
		Name: "drop-watch", Type: "ThroughputDrop", Target: globToRegex("*"),
		Threshold: -50, EvaluationWindowMinutes: 2, Enabled: true,
	}

	received := []int64{100, 100, 100, 100, 100, 40, 40}
	var last Result
	e := NewEvaluator(fakeStatsSource{}, []Definition{def})
	for i, r := range received {
		e.source = fakeStatsSource{samples: []collector.QueueSample{
			{Queue: "orders", Environment: "Prod", Region: "us-east-1", Stats: upstreamQueueStatsReceived(r)},
		}}
		results := e.RunCycle(time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC))
		last = results[0]
	}

	if !last.Triggered {
		t.Fatal("final cycle should trigger the throughput drop")
	}
	pctChange, ok := last.Metadata["percentChange"].(float64)
	if !ok {
		t.Fatal("expected percentChange in metadata")
	}
	if pctChange > -50 || pctChange < -53 {
		t.Errorf("percentChange = %v, want approximately -51.7", pctChange)
	}
}

func TestEvaluator_QueueHealthComposesScore(t *testing.T) {
	def := Definition{
		Name: "health", Type: "QueueHealth", Target: globToRegex("*"),
		Condition: "LT", Threshold: 50, Enabled: true,
	}
	e := NewEvaluator(fakeStatsSource{}, []Definition{def})

	state := e.store.GetOrCreate(Key{Monitor: "health", Destination: "orders", Environment: "Prod", Region: "us-east-1"})
	for i := 0; i < 5; i++ {
		state.AddValue(1000)
	}
	// Perturb slightly to produce a small, stable coefficient of variation.
	state.AddValue(1010)

	e.source = fakeStatsSource{samples: []collector.QueueSample{
		{Queue: "orders", Environment: "Prod", Region: "us-east-1", IsDLQ: false, Stats: upstreamFullQueueStats(1000, 300, 1000)},
	}}

	results := e.RunCycle(time.Now().UTC())
	if len(results) != 1 {
		t.Fatalf("results = %+v, want 1", results)
	}
	score := results[0].Value
	if math.Abs(score-69.98) > 1.0 {
		t.Errorf("health score = %v, want approximately 69.98", score)
	}
	if results[0].Triggered {
		t.Error("LT 50 should not trigger at a score near 70")
	}
}

func TestEvaluator_LatestResultsReflectsMostRecentCycle(t *testing.T) {
	def := Definition{
		Name: "depth-check", Type: "QueueDepth", Target: globToRegex("*"),
		Condition: "GT", Threshold: 5, Enabled: true,
	}
	source := fakeStatsSource{samples: []collector.QueueSample{
		{Queue: "orders", Environment: "Prod", Region: "us-east-1", Stats: upstreamQueueStats(10)},
	}}
	e := NewEvaluator(source, []Definition{def})

	if len(e.LatestResults()) != 0 {
		t.Fatal("LatestResults() should be empty before any cycle runs")
	}

	e.RunCycle(time.Now().UTC())
	results := e.LatestResults()
	if len(results) != 1 || results[0].Type != "QueueDepth" || !results[0].Triggered {
		t.Fatalf("LatestResults() = %+v, want one triggered QueueDepth result", results)
	}
	if len(e.Definitions()) != 1 || e.Definitions()[0].Name != "depth-check" {
		t.Errorf("Definitions() = %+v, want [depth-check]", e.Definitions())
	}
}

func TestEvaluateCondition_AllOperators(t *testing.T) {
	tests := []struct {
		condition string
		current   float64
		threshold float64
		want      bool
	}{
		{"GT", 5, 3, true},
		{"GT", 3, 5, false},
		{"LT", 3, 5, true},
		{"GTE", 5, 5, true},
		{"LTE", 5, 5, true},
		{"EQ", 5.0004, 5, true},
		{"EQ", 5.1, 5, false},
		{"unknown", 5, 5, false},
	}
	for _, tt := range tests {
		if got := evaluateCondition(tt.condition, tt.current, tt.threshold); got != tt.want {
			t.Errorf("evaluateCondition(%q, %v, %v) = %v, want %v", tt.condition, tt.current, tt.threshold, got, tt.want)
		}
	}
}
