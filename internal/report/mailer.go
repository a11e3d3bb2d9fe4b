package report

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"marketpulse/server/config"
)

// Mailer delivers rendered reports over SMTP with implicit TLS.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	to       string
	market   string
	logger   *logrus.Logger
}

// NewMailer creates a mailer from the SMTP configuration
func NewMailer(cfg *config.Config, market config.Market, logger *logrus.Logger) *Mailer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Mailer{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		user:     cfg.SMTP.User,
		password: cfg.SMTP.Password,
		to:       cfg.SMTP.To,
		market:   market.Name,
		logger:   logger,
	}
}

// Subject builds the report subject line for the given run date.
func (m *Mailer) Subject(date time.Time, degraded bool) string {
	day := date.Format("2006-01-02")
	if degraded {
		return fmt.Sprintf("%s Market Pulse — Pipeline Degraded — %s", m.market, day)
	}
	return fmt.Sprintf("%s Market Pulse — %s", m.market, day)
}

// Send delivers the HTML body to the configured recipient.
func (m *Mailer) Send(subject, html string) error {
	if m.user == "" || m.password == "" || m.to == "" {
		return fmt.Errorf("smtp credentials or recipient not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.user)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	dialer := gomail.NewDialer(m.host, m.port, m.user, m.password)
	dialer.SSL = m.port == 465

	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"to":      m.to,
		"subject": subject,
	}).Info("Report email sent")
	return nil
}
