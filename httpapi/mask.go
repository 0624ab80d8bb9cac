// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package httpapi exposes the exporter's control-plane and monitoring
// endpoints: Prometheus exposition, health/status, discovery trigger,
// monitor inventory and synthetic test, health scores, and license
// reporting.
package httpapi

// mask redacts a sensitive identifier, keeping only enough of it for
// an operator to recognize which value is configured without exposing
// the secret itself.
func mask(s string) string {
	if len(s) < 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}
