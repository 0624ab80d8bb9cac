// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import "net/http"

func (s *Server) handleLicense(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tier":     s.gate.Tier(),
		"features": s.gate.Features(),
	})
}
