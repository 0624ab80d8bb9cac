// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import "net/http"

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.discovery.Current()

	environments := make([]string, 0, len(snap.Environments))
	for _, env := range snap.Environments {
		environments = append(environments, env.Name)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"autoDiscovery":         s.cfg.AutoDiscovery,
		"discoveryComplete":     s.discovery.Complete(),
		"rootTenant":            snap.RootTenant.Name,
		"environments":          environments,
		"regions":               s.discovery.Regions(),
		"scrapeIntervalSeconds": s.cfg.Scrape.IntervalSeconds,
		"statsPeriodSeconds":    s.cfg.Scrape.PeriodSeconds,
	})
}
