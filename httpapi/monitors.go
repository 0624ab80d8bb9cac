// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import (
	"net/http"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

func definitionView(def monitor.Definition) map[string]interface{} {
	return map[string]interface{}{
		"name":                    def.Name,
		"type":                    def.Type,
		"condition":               def.Condition,
		"threshold":               def.Threshold,
		"evaluationWindowMinutes": def.EvaluationWindowMinutes,
		"cooldownMinutes":         def.CooldownMinutes,
		"severity":                def.Severity,
		"channels":                def.Channels,
		"enabled":                 def.Enabled,
	}
}

func resultView(r monitor.Result) map[string]interface{} {
	return map[string]interface{}{
		"destination": r.Destination,
		"environment": r.Environment,
		"region":      r.Region,
		"triggered":   r.Triggered,
		"value":       r.Value,
		"threshold":   r.Threshold,
		"message":     r.Message,
		"evaluatedAt": r.EvaluatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	if !s.gate.MonitorsEnabled() {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"error": "monitors require a pro license"})
		return
	}

	defs := s.monitors.Definitions()
	out := make([]map[string]interface{}, 0, len(defs))
	for _, def := range defs {
		out = append(out, definitionView(def))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"monitors": out})
}

func (s *Server) handleGetMonitor(w http.ResponseWriter, r *http.Request) {
	if !s.gate.MonitorsEnabled() {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"error": "monitors require a pro license"})
		return
	}

	name := r.PathValue("name")
	def, ok := s.monitors.FindDefinition(name)
	if !ok {
		http.NotFound(w, r)
		return
	}

	var results []map[string]interface{}
	for _, res := range s.monitors.LatestResults() {
		if res.MonitorName == name {
			results = append(results, resultView(res))
		}
	}

	view := definitionView(def)
	view["results"] = results
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleTestMonitor(w http.ResponseWriter, r *http.Request) {
	if !s.gate.SyntheticTestEnabled() {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"error": "synthetic monitor tests require a pro license"})
		return
	}

	name := r.PathValue("name")
	result, ok := s.monitors.Synthesize(name, time.Now())
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.dispatcher.Dispatch(r.Context(), result)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"dispatched": resultView(result), "channels": result.Channels})
}
