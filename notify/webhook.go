// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

type webhookChannel struct {
	name       string
	webhookURL string
	headers    map[string]string
	client     *http.Client
}

func newWebhookChannel(cfg config.ChannelConfig) *webhookChannel {
	return &webhookChannel{
		name:       cfg.Name,
		webhookURL: cfg.WebhookURL,
		headers:    cfg.Headers,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *webhookChannel) Name() string     { return w.name }
func (w *webhookChannel) Type() string     { return "Webhook" }
func (w *webhookChannel) Configured() bool { return w.webhookURL != "" }

type webhookPayload struct {
	Monitor     string                 `json:"monitor"`
	Destination string                 `json:"destination"`
	Environment string                 `json:"environment"`
	Region      string                 `json:"region"`
	Severity    string                 `json:"severity"`
	Current     float64                `json:"current"`
	Threshold   float64                `json:"threshold"`
	Message     string                 `json:"message"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   string                 `json:"timestamp"`
}

func (w *webhookChannel) Send(ctx context.Context, result monitor.Result) error {
	payload := webhookPayload{
		Monitor:     result.MonitorName,
		Destination: result.Destination,
		Environment: result.Environment,
		Region:      result.Region,
		Severity:    result.Severity,
		Current:     result.Value,
		Threshold:   result.Threshold,
		Message:     result.Message,
		Metadata:    result.Metadata,
		Timestamp:   result.EvaluatedAt.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
