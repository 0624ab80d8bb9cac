// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	amqerrors "github.com/netflexity/anypoint-mq-exporter/pkg/errors"
)

func TestCacheGet_ReturnsValidCredentialWithoutRefresh(t *testing.T) {
	var calls int32
	cache := NewCache(func(ctx context.Context) (Credential, error) {
		atomic.AddInt32(&calls, 1)
		return Credential{AccessToken: "tok", IssuedAt: time.Now(), TTLSeconds: 3600}, nil
	})

	cred, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cred.AccessToken != "tok" {
		t.Errorf("AccessToken = %v, want tok", cred.AccessToken)
	}

	if _, err := cache.Get(context.Background()); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("authenticate called %d times, want 1", got)
	}
}

func TestCacheGet_RefreshesExpiredCredential(t *testing.T) {
	var calls int32
	cache := NewCache(func(ctx context.Context) (Credential, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return Credential{AccessToken: "stale", IssuedAt: time.Now().Add(-2 * time.Hour), TTLSeconds: 3600}, nil
		}
		return Credential{AccessToken: "fresh", IssuedAt: time.Now(), TTLSeconds: 3600}, nil
	})

	cache.slot.Store(&Credential{AccessToken: "stale", IssuedAt: time.Now().Add(-2 * time.Hour), TTLSeconds: 3600})

	cred, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cred.AccessToken != "fresh" {
		t.Errorf("AccessToken = %v, want fresh", cred.AccessToken)
	}
}

func TestCacheGet_CoalescesConcurrentRefreshes(t *testing.T) {
	var calls int32
	start := make(chan struct{})
	cache := NewCache(func(ctx context.Context) (Credential, error) {
		atomic.AddInt32(&calls, 1)
		<-start
		return Credential{AccessToken: "tok", IssuedAt: time.Now(), TTLSeconds: 3600}, nil
	})

	var wg sync.WaitGroup
	const n = 20
	results := make([]Credential, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background())
		}(i)
	}

	close(start)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("Get() %d error = %v", i, errs[i])
		}
		if results[i].AccessToken != "tok" {
			t.Errorf("Get() %d AccessToken = %v, want tok", i, results[i].AccessToken)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("authenticate called %d times, want 1", got)
	}
}

func TestCacheGet_ClearsSlotOnAuthFailure(t *testing.T) {
	cache := NewCache(func(ctx context.Context) (Credential, error) {
		return Credential{}, amqerrors.NewAuthFailedError("authenticate", 401, nil)
	})
	cache.slot.Store(&Credential{AccessToken: "stale", IssuedAt: time.Now().Add(-2 * time.Hour), TTLSeconds: 3600})

	_, err := cache.Get(context.Background())
	if err == nil {
		t.Fatal("Get() expected error, got nil")
	}
	if !amqerrors.IsAuthFailedError(err) {
		t.Errorf("expected AuthFailedError, got %v", err)
	}
	if cache.slot.Load() != nil {
		t.Error("slot should be cleared after auth failure")
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewCache(func(ctx context.Context) (Credential, error) {
		return Credential{AccessToken: "tok", IssuedAt: time.Now(), TTLSeconds: 3600}, nil
	})
	cache.slot.Store(&Credential{AccessToken: "tok", IssuedAt: time.Now(), TTLSeconds: 3600})

	cache.Clear()

	if cache.slot.Load() != nil {
		t.Error("slot should be nil after Clear")
	}
}
