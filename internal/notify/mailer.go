// Package notify holds the best-effort side effects: emails and inventory
// updates driven by domain events. Nothing in here may fail the operation
// that raised the event.
package notify

import (
	"fmt"
	"net/smtp"

	"datapro-service/pkg/config"
	"datapro-service/pkg/logger"

	"go.uber.org/zap"
)

// Mailer sends plain-text notification mail over SMTP. A mailer with no host
// configured drops everything silently, which keeps development environments
// quiet.
type Mailer struct {
	host string
	port int
	from string
}

// NewMailer builds a mailer from the SMTP section of the service config
func NewMailer(cfg *config.SMTPConfig) *Mailer {
	return &Mailer{
		host: cfg.Host,
		port: cfg.Port,
		from: cfg.FromAddress,
	}
}

// Send delivers one message. Errors are logged, never returned: notification
// mail is best-effort by contract.
func (m *Mailer) Send(to, subject, body string) {
	if m.host == "" || to == "" {
		return
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.from, to, subject, body))

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, nil, m.from, []string{to}, msg); err != nil {
		logger.GetLogger().Warn("failed to send notification email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
	}
}
