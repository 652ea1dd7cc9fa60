package alert

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/records-api/pkg/logger"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Mailer sends ops alerts for security-relevant ledger events. Sends are
// best effort: failures are logged, never propagated.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger *logger.Logger
}

// NewMailer returns nil when no SMTP host is configured; a nil Mailer is
// safe to leave unwired.
func NewMailer(cfg Config, log *logger.Logger) *Mailer {
	if cfg.Host == "" || cfg.To == "" {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
		logger: log.WithComponent("alert"),
	}
}

// UntrustedWriter reports a rejected audit append.
func (m *Mailer) UntrustedWriter(writer, action string) {
	subject := "audit ledger: rejected append from untrusted writer"
	body := fmt.Sprintf("An append with action %s was rejected because %s is not a trusted ledger writer.", action, writer)
	m.send(subject, body)
}

// BrokenTrail reports a failed hash chain verification.
func (m *Mailer) BrokenTrail(patient string, entryID int64) {
	subject := "audit ledger: trail verification failed"
	body := fmt.Sprintf("Digest verification for patient %s broke at entry %d. The trail may have been tampered with.", patient, entryID)
	m.send(subject, body)
}

func (m *Mailer) send(subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error(err, "failed to send alert mail", "subject", subject)
	}
}
