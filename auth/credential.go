// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package auth provides the single-slot credential cache used by the
// upstream API client. It memoizes the bearer credential obtained from
// the authentication endpoint and coalesces concurrent refreshes with
// a singleflight guard.
package auth

import "time"

// safetyMargin is subtracted from a credential's expiry so that a
// refresh happens slightly ahead of the wire-level deadline.
const safetyMargin = 5 * time.Minute

// Credential is an opaque bearer credential with a bounded lifetime.
type Credential struct {
	AccessToken string
	TokenType   string
	IssuedAt    time.Time
	TTLSeconds  int
}

// IsValid reports whether the credential is usable right now, applying
// the safety margin so callers refresh ahead of the real expiry.
func (c Credential) IsValid() bool {
	if c.AccessToken == "" {
		return false
	}
	expiry := c.IssuedAt.Add(time.Duration(c.TTLSeconds) * time.Second)
	return time.Now().Add(safetyMargin).Before(expiry)
}
