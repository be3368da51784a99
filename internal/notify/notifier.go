package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bettyarega/Flash-CDC/pkg/config"
	"github.com/bettyarega/Flash-CDC/pkg/email"
	"github.com/bettyarega/Flash-CDC/pkg/logging"
)

// Mailer is satisfied by email.Sender.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// Notifier sends best-effort error emails. A nil-configured notifier is
// valid and drops everything, so callers never branch on SMTP being set up.
type Notifier struct {
	mailer    Mailer
	recipient string
	logger    logging.Logger
}

// FromEnv builds a Notifier from SMTP_* and NOTIFICATION_EMAIL. When any
// required variable is missing, notifications are disabled.
func FromEnv(logger logging.Logger) *Notifier {
	host := config.GetEnv("SMTP_HOST", "")
	user := config.GetEnv("SMTP_USER", "")
	password := config.GetEnv("SMTP_PASSWORD", "")
	recipient := config.GetEnv("NOTIFICATION_EMAIL", "")

	if host == "" || user == "" || password == "" || recipient == "" {
		logger.Info("Email notifications disabled (SMTP settings incomplete)")
		return &Notifier{logger: logger}
	}

	sender := email.NewSender(email.Config{
		Host:     host,
		Port:     config.GetEnv("SMTP_PORT", "587"),
		User:     user,
		Password: password,
		From:     config.GetEnv("SMTP_FROM_EMAIL", user),
		FromName: config.GetEnv("SMTP_FROM_NAME", "Flash CDC"),
	})
	return &Notifier{mailer: sender, recipient: recipient, logger: logger}
}

func NewNotifier(mailer Mailer, recipient string, logger logging.Logger) *Notifier {
	return &Notifier{mailer: mailer, recipient: recipient, logger: logger}
}

// Enabled reports whether emails will actually be sent.
func (n *Notifier) Enabled() bool {
	return n.mailer != nil && n.recipient != ""
}

// ListenerError emails the operator about a listener failure. Failures to
// send are logged and swallowed.
func (n *Notifier) ListenerError(ctx context.Context, clientID int64, clientName, topic, reason string) {
	if !n.Enabled() {
		return
	}
	subject := fmt.Sprintf("Listener Error: %s (ID: %d)", clientName, clientID)
	body := fmt.Sprintf(
		"A change-data-capture listener stopped with an error.\n\n"+
			"Client: %s (ID: %d)\nTopic: %s\nTime: %s\n\nError:\n%s\n\n"+
			"The listener will not restart on its own. Fix the configuration and start it again.\n",
		clientName, clientID, topic, time.Now().UTC().Format(time.RFC3339), reason,
	)
	if err := n.mailer.SendMail(ctx, n.recipient, subject, body); err != nil {
		n.logger.WithError(err).WithField("client_id", clientID).Warn("Error notification not sent")
		return
	}
	n.logger.WithField("client_id", clientID).Info("Error notification sent")
}
