// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package httpapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const healthCacheTTL = 30 * time.Second

// AuthStatus tracks the outcome of the most recent upstream
// authentication attempt. The exporter reports DOWN only once
// authentication has failed continuously for longer than
// healthCacheTTL; transient blips within that window still read UP.
type AuthStatus struct {
	mu           sync.Mutex
	lastSuccess  time.Time
	lastFailure  time.Time
	failingSince time.Time
	lastError    string
}

// RecordSuccess marks an authentication attempt that succeeded at now.
func (a *AuthStatus) RecordSuccess(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSuccess = now
	a.failingSince = time.Time{}
	a.lastError = ""
}

// RecordFailure marks an authentication attempt that failed at now.
func (a *AuthStatus) RecordFailure(now time.Time, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastFailure = now
	if a.failingSince.IsZero() {
		a.failingSince = now
	}
	if err != nil {
		a.lastError = err.Error()
	}
}

// snapshot reports whether the exporter should be considered healthy
// as of now, plus the detail fields /actuator/health exposes.
func (a *AuthStatus) snapshot(now time.Time) (up bool, details map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()

	details = map[string]interface{}{}
	if !a.lastSuccess.IsZero() {
		details["lastAuthSuccess"] = a.lastSuccess.Format(time.RFC3339)
	}
	if !a.lastFailure.IsZero() {
		details["lastAuthFailure"] = a.lastFailure.Format(time.RFC3339)
	}
	if a.lastError != "" {
		details["lastAuthError"] = a.lastError
	}

	switch {
	case a.lastSuccess.IsZero() && a.lastFailure.IsZero():
		// No authentication attempt has run yet; assume healthy until
		// the first cycle reports otherwise.
		return true, details
	case a.lastFailure.IsZero():
		return true, details
	case a.lastSuccess.After(a.lastFailure):
		return true, details
	default:
		return now.Sub(a.failingSince) < healthCacheTTL, details
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	up, authDetails := s.authStatus.snapshot(time.Now())

	details := map[string]interface{}{
		"authentication": authDetails,
		"config": map[string]interface{}{
			"baseUrl":        s.cfg.BaseURL,
			"organizationId": mask(s.cfg.OrganizationID),
			"clientId":       mask(s.cfg.Auth.ClientID),
			"licenseKey":     mask(s.cfg.License.Key),
		},
	}

	status := "UP"
	code := http.StatusOK
	if !up {
		status = "DOWN"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{"status": status, "details": details})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
