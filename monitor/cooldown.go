// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package monitor

import "time"

// Gate decides whether a triggered Result should reach the
// notification dispatcher, given the definition's cooldown. A
// non-triggered result never passes. This check alone never advances
// the cooldown window; call MarkNotified once dispatch succeeds.
func (e *Evaluator) Gate(result Result, cooldownMinutes int) bool {
	if !result.Triggered {
		return false
	}
	state := e.store.GetOrCreate(resultKey(result))
	return state.PassesCooldown(time.Duration(cooldownMinutes)*time.Minute, result.EvaluatedAt)
}

// MarkNotified records that result was successfully dispatched,
// starting its cooldown window from result.EvaluatedAt.
func (e *Evaluator) MarkNotified(result Result) {
	state := e.store.GetOrCreate(resultKey(result))
	state.MarkNotified(result.EvaluatedAt)
}

func resultKey(result Result) Key {
	return Key{Monitor: result.MonitorName, Destination: result.Destination, Environment: result.Environment, Region: result.Region}
}
