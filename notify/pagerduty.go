// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

var pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

type pagerDutyChannel struct {
	name       string
	routingKey string
	client     *http.Client
}

func newPagerDutyChannel(cfg config.ChannelConfig) *pagerDutyChannel {
	return &pagerDutyChannel{
		name:       cfg.Name,
		routingKey: cfg.RoutingKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *pagerDutyChannel) Name() string     { return p.name }
func (p *pagerDutyChannel) Type() string     { return "PagerDuty" }
func (p *pagerDutyChannel) Configured() bool { return p.routingKey != "" }

type pagerDutyEvent struct {
	RoutingKey  string            `json:"routing_key"`
	EventAction string            `json:"event_action"`
	DedupKey    string            `json:"dedup_key"`
	Payload     pagerDutyPayload  `json:"payload"`
}

type pagerDutyPayload struct {
	Summary       string                 `json:"summary"`
	Source        string                 `json:"source"`
	Severity      string                 `json:"severity"`
	Timestamp     string                 `json:"timestamp"`
	CustomDetails map[string]interface{} `json:"custom_details,omitempty"`
}

func (p *pagerDutyChannel) Send(ctx context.Context, result monitor.Result) error {
	event := pagerDutyEvent{
		RoutingKey:  p.routingKey,
		EventAction: "trigger",
		DedupKey:    fmt.Sprintf("amq-monitor-%s-%s-%s", result.MonitorName, result.Destination, result.Environment),
		Payload: pagerDutyPayload{
			Summary:   result.Message,
			Source:    "anypoint-mq-exporter",
			Severity:  pagerDutySeverity(result.Severity),
			Timestamp: result.EvaluatedAt.UTC().Format(time.RFC3339),
			CustomDetails: map[string]interface{}{
				"region":      result.Region,
				"current":     result.Value,
				"threshold":   result.Threshold,
				"destination": result.Destination,
			},
		},
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal pagerduty event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pagerDutyEventsURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build pagerduty request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send pagerduty event: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("pagerduty events api returned status %d", resp.StatusCode)
	}
	return nil
}

func pagerDutySeverity(severity string) string {
	return strings.ToLower(severity)
}
