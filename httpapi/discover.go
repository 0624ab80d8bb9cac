// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import "net/http"

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if err := s.discovery.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error()})
		return
	}

	snap := s.discovery.Current()
	environments := make([]string, 0, len(snap.Environments))
	for _, env := range snap.Environments {
		environments = append(environments, env.Name)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rootTenant":   snap.RootTenant.Name,
		"environments": environments,
		"regions":      s.discovery.Regions(),
	})
}
