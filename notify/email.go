// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/netflexity/anypoint-mq-exporter/config"
	"github.com/netflexity/anypoint-mq-exporter/monitor"
)

type emailChannel struct {
	name      string
	recipient string
	sender    string
	host      string
	port      int
	username  string
	password  string
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func newEmailChannel(cfg config.ChannelConfig) *emailChannel {
	return &emailChannel{
		name:      cfg.Name,
		recipient: cfg.Recipient,
		sender:    cfg.Sender,
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		sendMail:  smtp.SendMail,
	}
}

func (e *emailChannel) Name() string { return e.name }
func (e *emailChannel) Type() string { return "Email" }
func (e *emailChannel) Configured() bool {
	return e.recipient != "" && e.sender != "" && e.host != ""
}

func (e *emailChannel) Send(ctx context.Context, result monitor.Result) error {
	subject := fmt.Sprintf("[%s] %s", result.Severity, result.MonitorName)
	body := fmt.Sprintf(
		"%s\n\nDestination: %s\nEnvironment: %s\nRegion: %s\nCurrent: %.2f\nThreshold: %.2f\nTriggered at: %s\n",
		result.Message, result.Destination, result.Environment, result.Region,
		result.Value, result.Threshold, result.EvaluatedAt.Format("2006-01-02T15:04:05Z07:00"),
	)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.sender)
	fmt.Fprintf(&msg, "To: %s\r\n", e.recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	return e.sendMail(addr, auth, e.sender, []string{e.recipient}, []byte(msg.String()))
}
