// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/pkg/metrics"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

type fakeChannel struct {
	name, typ  string
	configured bool
	err        error
	calls      int32
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Type() string     { return f.typ }
func (f *fakeChannel) Configured() bool { return f.configured }
func (f *fakeChannel) Send(ctx context.Context, result monitor.Result) error {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

func testResult(channels ...string) monitor.Result {
	return monitor.Result{
		MonitorName: "dlq-watch",
		Destination: "orders-dlq",
		Environment: "Prod",
		Region:      "us-east-1",
		Triggered:   true,
		Value:       3,
		Threshold:   0,
		Message:     "dead-letter queue depth 3 GT threshold 0",
		Severity:    "Critical",
		Channels:    channels,
		EvaluatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata:    map[string]interface{}{},
	}
}

func TestDispatcher_IsolatesFailingChannelFromSiblings(t *testing.T) {
	ok := &fakeChannel{name: "ok", typ: "Webhook", configured: true}
	failing := &fakeChannel{name: "failing", typ: "Slack", configured: true, err: errors.New("boom")}

	d := &Dispatcher{channels: map[string]Channel{"ok": ok, "failing": failing}}
	delivered := d.Dispatch(context.Background(), testResult("ok", "failing"))

	if !delivered {
		t.Error("Dispatch() = false, want true when at least one channel delivers")
	}
	if atomic.LoadInt32(&ok.calls) != 1 {
		t.Errorf("ok channel calls = %d, want 1", ok.calls)
	}
	if atomic.LoadInt32(&failing.calls) != 1 {
		t.Errorf("failing channel calls = %d, want 1", failing.calls)
	}
}

func TestDispatcher_ReportsNoDeliveryWhenEveryChannelFails(t *testing.T) {
	unconfigured := &fakeChannel{name: "unconfigured", typ: "Email", configured: false}
	failing := &fakeChannel{name: "failing", typ: "Slack", configured: true, err: errors.New("boom")}

	d := &Dispatcher{channels: map[string]Channel{"unconfigured": unconfigured, "failing": failing}}
	delivered := d.Dispatch(context.Background(), testResult("unconfigured", "failing"))

	if delivered {
		t.Error("Dispatch() = true, want false when every channel fails or is unconfigured")
	}
}

func TestDispatcher_SkipsUnconfiguredChannelWithoutCallingSend(t *testing.T) {
	unconfigured := &fakeChannel{name: "unconfigured", typ: "Email", configured: false}
	d := &Dispatcher{channels: map[string]Channel{"unconfigured": unconfigured}}

	before := testutil.ToFloat64(metrics.NotificationsFailedTotal.WithLabelValues("dlq-watch", "unconfigured", "Email", "not_configured"))
	d.Dispatch(context.Background(), testResult("unconfigured"))
	after := testutil.ToFloat64(metrics.NotificationsFailedTotal.WithLabelValues("dlq-watch", "unconfigured", "Email", "not_configured"))

	if atomic.LoadInt32(&unconfigured.calls) != 0 {
		t.Error("Send should not be called on an unconfigured channel")
	}
	if after != before+1 {
		t.Errorf("notifications_failed_total{error=not_configured} = %v, want %v", after, before+1)
	}
}

func TestDispatcher_UnknownChannelNameIsSkipped(t *testing.T) {
	d := &Dispatcher{channels: map[string]Channel{}}
	d.Dispatch(context.Background(), testResult("does-not-exist"))
}

func TestNewDispatcher_SkipsDisabledAndUnknownTypes(t *testing.T) {
	d := NewDispatcher([]config.ChannelConfig{
		{Name: "a", Type: "Slack", Enabled: false, WebhookURL: "https://example.com"},
		{Name: "b", Type: "Bogus", Enabled: true},
		{Name: "c", Type: "Webhook", Enabled: true, WebhookURL: "https://example.com"},
	})
	if len(d.channels) != 1 {
		t.Fatalf("len(d.channels) = %d, want 1", len(d.channels))
	}
	if _, ok := d.channels["c"]; !ok {
		t.Error("expected channel c to be registered")
	}
}
