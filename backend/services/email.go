package services

import (
	"fmt"
	"net/smtp"
	"tutorium/backend/config"

	"go.uber.org/zap"
)

// Mailer sends transactional email through a plain SMTP relay. With no host
// configured every send is a logged no-op; email is never on the request's
// critical path.
type Mailer struct {
	host string
	port string
	user string
	pass string
	from string
	log  *zap.Logger

	// send is swapped out in tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg *config.Config, log *zap.Logger) *Mailer {
	return &Mailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: cfg.SMTPFrom,
		log:  log.With(zap.String("service", "mailer")),
		send: smtp.SendMail,
	}
}

func (m *Mailer) SendWelcome(to, name string) error {
	subject := "Welcome to Tutorium"
	body := fmt.Sprintf("Hi %s,\n\nYour account is ready. Create a learning plan and start your first streak today.\n", name)
	return m.sendMail(to, subject, body)
}

func (m *Mailer) SendBadgeEarned(to, badgeName string) error {
	subject := fmt.Sprintf("You earned the %q badge", badgeName)
	body := fmt.Sprintf("Congratulations! The %q badge has been added to your profile.\n", badgeName)
	return m.sendMail(to, subject, body)
}

func (m *Mailer) sendMail(to, subject, body string) error {
	if m.host == "" {
		m.log.Debug("smtp not configured, skipping email", zap.String("to", to))
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		m.from, to, subject, body))

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	return m.send(m.host+":"+m.port, auth, m.from, []string{to}, msg)
}
