// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package notify dispatches triggered monitor results to named
// notification channels. Every channel shares the same narrow
// interface; the dispatcher knows nothing about Slack, PagerDuty,
// Teams, email, or generic webhooks beyond that shape.
package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/netflexity/anypoint-mq-exporter/config"
	amqerrors "github.com/netflexity/anypoint-mq-exporter/pkg/errors"
	"github.com/netflexity/anypoint-mq-exporter/pkg/logger"
	"github.com/netflexity/anypoint-mq-exporter/pkg/metrics"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

// Channel is the common behavior every notification transport
// implements. The dispatcher depends only on this.
type Channel interface {
	Send(ctx context.Context, result monitor.Result) error
	Name() string
	Type() string
	Configured() bool
}

// NewChannel builds the concrete Channel for a configured entry.
func NewChannel(cfg config.ChannelConfig) Channel {
	switch cfg.Type {
	case "Slack":
		return newSlackChannel(cfg)
	case "PagerDuty":
		return newPagerDutyChannel(cfg)
	case "Teams":
		return newTeamsChannel(cfg)
	case "Email":
		return newEmailChannel(cfg)
	case "Webhook":
		return newWebhookChannel(cfg)
	default:
		return nil
	}
}

// Dispatcher routes a triggered Result to every channel named on its
// definition, isolating each channel's failure from its siblings.
type Dispatcher struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewDispatcher builds a Dispatcher from configured channels. Entries
// with an unrecognized type or a nil constructor result are skipped.
func NewDispatcher(cfgs []config.ChannelConfig) *Dispatcher {
	d := &Dispatcher{channels: make(map[string]Channel)}
	for _, cfg := range cfgs {
		if !cfg.Enabled {
			continue
		}
		ch := NewChannel(cfg)
		if ch == nil {
			logger.Warn().Str("channel", cfg.Name).Str("type", cfg.Type).Msg("Unknown notification channel type, skipping")
			continue
		}
		d.channels[cfg.Name] = ch
	}
	return d
}

// Dispatch delivers result to every channel named on it, in parallel,
// and reports whether at least one channel delivered it successfully.
// A channel that fails or is unconfigured is counted and logged; it
// never prevents delivery to its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, result monitor.Result) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	dispatchID := uuid.New().String()
	var wg sync.WaitGroup
	var delivered atomic.Bool
	for _, name := range result.Channels {
		ch, ok := d.channels[name]
		if !ok {
			logger.Warn().Str("dispatch_id", dispatchID).Str("monitor", result.MonitorName).Str("channel", name).Msg("Notification channel not found, skipping")
			continue
		}
		wg.Add(1)
		go func(ch Channel) {
			defer wg.Done()
			if d.send(ctx, dispatchID, ch, result) {
				delivered.Store(true)
			}
		}(ch)
	}
	wg.Wait()
	return delivered.Load()
}

func (d *Dispatcher) send(ctx context.Context, dispatchID string, ch Channel, result monitor.Result) bool {
	if !ch.Configured() {
		metrics.NotificationsTotal.WithLabelValues(result.MonitorName, ch.Name(), ch.Type(), "fail").Inc()
		metrics.NotificationsFailedTotal.WithLabelValues(result.MonitorName, ch.Name(), ch.Type(), "not_configured").Inc()
		return false
	}

	err := ch.Send(ctx, result)
	if err != nil {
		cerr := amqerrors.NewChannelError(ch.Name(), ch.Type(), err)
		logger.Warn().Err(cerr).Str("dispatch_id", dispatchID).Str("monitor", result.MonitorName).Msg("Notification delivery failed")
		metrics.NotificationsTotal.WithLabelValues(result.MonitorName, ch.Name(), ch.Type(), "fail").Inc()
		metrics.NotificationsFailedTotal.WithLabelValues(result.MonitorName, ch.Name(), ch.Type(), errorClass(err)).Inc()
		return false
	}
	logger.Debug().Str("dispatch_id", dispatchID).Str("monitor", result.MonitorName).Str("channel", ch.Name()).Msg("Notification delivered")
	metrics.NotificationsTotal.WithLabelValues(result.MonitorName, ch.Name(), ch.Type(), "success").Inc()
	return true
}

// errorClass buckets a delivery error into a small, stable label set
// so notifications_failed_total's cardinality doesn't track raw error
// text.
func errorClass(err error) string {
	switch {
	case amqerrors.IsTransientError(err):
		return "transient"
	case amqerrors.IsAuthFailedError(err):
		return "auth_failed"
	default:
		return "other"
	}
}
