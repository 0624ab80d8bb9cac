// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import (
	"net/http"

	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

func (s *Server) handleHealthScores(w http.ResponseWriter, r *http.Request) {
	scores := make([]map[string]interface{}, 0)
	for _, res := range s.monitors.LatestResults() {
		if res.Type != "QueueHealth" {
			continue
		}
		scores = append(scores, healthScoreView(res))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"healthScores": scores})
}

func (s *Server) handleHealthScoreByQueue(w http.ResponseWriter, r *http.Request) {
	queueName := r.PathValue("queueName")
	for _, res := range s.monitors.LatestResults() {
		if res.Type == "QueueHealth" && res.Destination == queueName {
			writeJSON(w, http.StatusOK, healthScoreView(res))
			return
		}
	}
	http.NotFound(w, r)
}

func healthScoreView(r monitor.Result) map[string]interface{} {
	view := resultView(r)
	view["score"] = r.Value
	view["monitor"] = r.MonitorName
	return view
}
