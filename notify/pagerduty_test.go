// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/netflexity/anypoint-mq-exporter/config"
)

func pagerDutyEventsURLForTest(url string) func() {
	orig := pagerDutyEventsURL
	pagerDutyEventsURL = url
	return func() { pagerDutyEventsURL = orig }
}

func TestPagerDutyChannel_SendBuildsDedupKeyAndSeverity(t *testing.T) {
	var captured pagerDutyEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	ch := newPagerDutyChannel(config.ChannelConfig{Name: "oncall", RoutingKey: "routing-key-1"})
	ch.client = server.Client()

	origURL := pagerDutyEventsURLForTest(server.URL)
	defer origURL()

	if err := ch.Send(context.Background(), testResult("oncall")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if captured.DedupKey != "amq-monitor-dlq-watch-orders-dlq-Prod" {
		t.Errorf("DedupKey = %q, want amq-monitor-dlq-watch-orders-dlq-Prod", captured.DedupKey)
	}
	if captured.Payload.Severity != "critical" {
		t.Errorf("Payload.Severity = %q, want critical", captured.Payload.Severity)
	}
	if captured.EventAction != "trigger" {
		t.Errorf("EventAction = %q, want trigger", captured.EventAction)
	}
}

func TestPagerDutyChannel_NonAcceptedStatusIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	ch := newPagerDutyChannel(config.ChannelConfig{Name: "oncall", RoutingKey: "routing-key-1"})
	ch.client = server.Client()
	restore := pagerDutyEventsURLForTest(server.URL)
	defer restore()

	if err := ch.Send(context.Background(), testResult("oncall")); err == nil {
		t.Fatal("expected an error for a non-202 response")
	}
}
