// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/slack-go/slack"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

type slackChannel struct {
	name       string
	webhookURL string
}

func newSlackChannel(cfg config.ChannelConfig) *slackChannel {
	return &slackChannel{name: cfg.Name, webhookURL: cfg.WebhookURL}
}

func (s *slackChannel) Name() string     { return s.name }
func (s *slackChannel) Type() string     { return "Slack" }
func (s *slackChannel) Configured() bool { return s.webhookURL != "" }

func (s *slackChannel) Send(ctx context.Context, result monitor.Result) error {
	msg := &slack.WebhookMessage{
		Text: fmt.Sprintf("[%s] %s", result.Severity, result.MonitorName),
		Attachments: []slack.Attachment{
			{
				Color: severityToColor(result.Severity),
				Title: result.Message,
				Fields: []slack.AttachmentField{
					{Title: "Environment", Value: result.Environment, Short: true},
					{Title: "Region", Value: result.Region, Short: true},
					{Title: "Destination", Value: result.Destination, Short: true},
					{Title: "Current", Value: fmt.Sprintf("%.2f", result.Value), Short: true},
					{Title: "Threshold", Value: fmt.Sprintf("%.2f", result.Threshold), Short: true},
					{Title: "Triggered At", Value: result.EvaluatedAt.Format("2006-01-02T15:04:05Z07:00"), Short: true},
				},
				Footer: "anypoint-mq-exporter",
				Ts:     json.Number(strconv.FormatInt(result.EvaluatedAt.Unix(), 10)),
			},
		},
	}
	return slack.PostWebhookContext(ctx, s.webhookURL, msg)
}

func severityToColor(severity string) string {
	switch severity {
	case "Critical":
		return "danger"
	case "Warning":
		return "warning"
	default:
		return "good"
	}
}
