// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/netflexity/anypoint-mq-exporter/config"
)

func TestEmailChannel_SendBuildsMessageAndDialsConfiguredHost(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	ch := newEmailChannel(config.ChannelConfig{
		Name: "oncall-email", Recipient: "oncall@example.com", Sender: "alerts@example.com",
		SMTPHost: "smtp.example.com", SMTPPort: 587,
	})
	ch.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := ch.Send(context.Background(), testResult("oncall-email")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAddr != "smtp.example.com:587" {
		t.Errorf("addr = %q, want smtp.example.com:587", gotAddr)
	}
	if gotFrom != "alerts@example.com" || len(gotTo) != 1 || gotTo[0] != "oncall@example.com" {
		t.Errorf("from/to = %q/%v, want alerts@example.com/[oncall@example.com]", gotFrom, gotTo)
	}
	if !strings.Contains(string(gotMsg), "Subject: [Critical] dlq-watch") {
		t.Errorf("message missing expected subject: %s", gotMsg)
	}
	if !strings.Contains(string(gotMsg), "Destination: orders-dlq") {
		t.Errorf("message missing destination body line: %s", gotMsg)
	}
}

func TestEmailChannel_ConfiguredRequiresRecipientSenderAndHost(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ChannelConfig
		want bool
	}{
		{"all set", config.ChannelConfig{Recipient: "a@b.com", Sender: "c@d.com", SMTPHost: "h"}, true},
		{"missing host", config.ChannelConfig{Recipient: "a@b.com", Sender: "c@d.com"}, false},
		{"missing recipient", config.ChannelConfig{Sender: "c@d.com", SMTPHost: "h"}, false},
	}
	for _, tt := range tests {
		ch := newEmailChannel(tt.cfg)
		if got := ch.Configured(); got != tt.want {
			t.Errorf("%s: Configured() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
