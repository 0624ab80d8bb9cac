// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package upstream implements the typed HTTP client for the cloud
// messaging platform's admin and statistics APIs: authentication,
// tenant/environment/destination enumeration, and per-destination
// statistics, with retry, backoff, and circuit-breaker protection.
package upstream

import (
	"regexp"
	"strings"
)

// TenantRef identifies an organization visible to the current credential.
type TenantRef struct {
	ID   string
	Name string
}

// EnvironmentRef identifies an environment within a tenant.
type EnvironmentRef struct {
	ID     string
	Name   string
	Tenant TenantRef
	Type   string
	IsProd bool
}

// DestinationKind distinguishes a queue from an exchange.
type DestinationKind string

const (
	// KindQueue identifies a queue destination.
	KindQueue DestinationKind = "Queue"
	// KindExchange identifies an exchange destination.
	KindExchange DestinationKind = "Exchange"
)

// QueueAttributes holds the queue-only fields of a Destination.
type QueueAttributes struct {
	FIFO                  bool
	DefaultTTLMillis      int64
	MaxDeliveries         int
	DeadLetterDestination string
	Encrypted             bool
}

// ExchangeAttributes holds the exchange-only fields of a Destination.
type ExchangeAttributes struct {
	Encrypted bool
}

// Destination is a queue or exchange within an environment/region.
type Destination struct {
	ID            string
	Name          string
	Kind          DestinationKind
	EnvironmentID string
	Region        string
	Queue         *QueueAttributes
	Exchange      *ExchangeAttributes
}

// DisplayName returns Name, falling back to ID when Name is empty.
func (d Destination) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

var sanitizeNamePattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizedName returns DisplayName with every character outside
// [A-Za-z0-9_-] replaced by "_", for use as a metric label value.
func (d Destination) SanitizedName() string {
	name := d.DisplayName()
	if name == "" {
		return "unknown"
	}
	return sanitizeNamePattern.ReplaceAllString(name, "_")
}

var dlqSuffixes = []string{"-dead", "-dl"}
var dlqSubstrings = []string{"dlq", "dead-letter", "deadletter"}

// IsDLQ reports whether this destination's sanitized name matches the
// dead-letter-queue naming heuristic. Only meaningful for queues.
func (d Destination) IsDLQ() bool {
	if d.Kind != KindQueue {
		return false
	}
	lower := strings.ToLower(d.DisplayName())
	for _, s := range dlqSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	for _, s := range dlqSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// QueueStats is a point-in-time statistics sample for a queue.
type QueueStats struct {
	MessagesInQueue    int64
	MessagesInFlight   int64
	MessagesSent       int64
	MessagesReceived   int64
	MessagesAcked      int64
	QueueSizeBytes     *float64
	AverageMessageSize *float64
}

// ExchangeStats is a point-in-time statistics sample for an exchange.
type ExchangeStats struct {
	MessagesPublished int64
	MessagesDelivered int64
}

// TenantSnapshot is the result of listSelf: the root tenant the
// credential belongs to, plus any sibling/member tenants it can see.
type TenantSnapshot struct {
	RootTenant    TenantRef
	MemberTenants []TenantRef
}
