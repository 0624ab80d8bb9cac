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

type teamsChannel struct {
	name       string
	webhookURL string
	client     *http.Client
}

func newTeamsChannel(cfg config.ChannelConfig) *teamsChannel {
	return &teamsChannel{
		name:       cfg.Name,
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *teamsChannel) Name() string     { return t.name }
func (t *teamsChannel) Type() string     { return "Teams" }
func (t *teamsChannel) Configured() bool { return t.webhookURL != "" }

type teamsMessageCard struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	ThemeColor string        `json:"themeColor"`
	Summary    string        `json:"summary"`
	Sections   []teamsSection `json:"sections"`
}

type teamsSection struct {
	ActivityTitle string      `json:"activityTitle"`
	Facts         []teamsFact `json:"facts"`
	Markdown      bool        `json:"markdown"`
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (t *teamsChannel) Send(ctx context.Context, result monitor.Result) error {
	card := teamsMessageCard{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: severityToTeamsColor(result.Severity),
		Summary:    result.Message,
		Sections: []teamsSection{{
			ActivityTitle: fmt.Sprintf("%s: %s", result.Severity, result.MonitorName),
			Markdown:      true,
			Facts: []teamsFact{
				{Name: "Destination", Value: result.Destination},
				{Name: "Environment", Value: result.Environment},
				{Name: "Region", Value: result.Region},
				{Name: "Current", Value: fmt.Sprintf("%.2f", result.Value)},
				{Name: "Threshold", Value: fmt.Sprintf("%.2f", result.Threshold)},
				{Name: "Triggered At", Value: result.EvaluatedAt.Format(time.RFC3339)},
			},
		}},
	}

	body, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal teams card: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build teams request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send teams card: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("teams webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func severityToTeamsColor(severity string) string {
	switch severity {
	case "Critical":
		return "FF0000"
	case "Warning":
		return "FFA500"
	default:
		return "00FF00"
	}
}
