// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package auth

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	amqerrors "github.com/netflexity/anypoint-mq-exporter/pkg/errors"
)

// AuthenticateFunc performs the actual upstream authentication exchange.
// Implementations live in the upstream package; the cache only depends
// on this function type to avoid an import cycle.
type AuthenticateFunc func(ctx context.Context) (Credential, error)

// Cache is the single-slot atomic credential cache described in the
// token-cache component: it returns the cached credential when valid,
// otherwise coalesces concurrent refreshes behind a singleflight group
// and clears the slot on a non-retryable authentication failure.
type Cache struct {
	slot         atomic.Pointer[Credential]
	authenticate AuthenticateFunc
	group        singleflight.Group
}

// NewCache creates a Cache that refreshes via the given authenticate function.
func NewCache(authenticate AuthenticateFunc) *Cache {
	return &Cache{authenticate: authenticate}
}

// Get returns a valid credential, refreshing it if necessary. Concurrent
// callers during a miss observe at most one in-flight refresh.
func (c *Cache) Get(ctx context.Context) (Credential, error) {
	if cred := c.slot.Load(); cred != nil && cred.IsValid() {
		return *cred, nil
	}

	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		// Re-check: another goroutine may have refreshed while we waited to enter.
		if cred := c.slot.Load(); cred != nil && cred.IsValid() {
			return *cred, nil
		}
		fresh, authErr := c.authenticate(ctx)
		if authErr != nil {
			if amqerrors.IsAuthFailedError(authErr) {
				c.slot.Store(nil)
			}
			return Credential{}, authErr
		}
		c.slot.Store(&fresh)
		return fresh, nil
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

// Clear empties the slot, forcing the next Get to refresh.
func (c *Cache) Clear() {
	c.slot.Store(nil)
}
