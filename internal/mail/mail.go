// Package mail sends invitation and sign-in emails over SMTP.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// ConfigFromEnv reads the SMTP settings. An empty host simply means mail is
// not configured; NewNotifier downgrades to logging in that case.
func ConfigFromEnv() Config {
	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("EMAIL_FROM"),
		FromName: os.Getenv("EMAIL_FROM_NAME"),
	}
}

func (c Config) isComplete() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

// Notifier delivers invitation mails. Invitation delivery is best effort:
// the invite row is already persisted when SendInvite runs, so callers log
// failures instead of rolling anything back.
type Notifier struct {
	config Config
	auth   smtp.Auth
}

// NewNotifier returns a notifier for the given config, or nil when the
// config is incomplete. A nil *Notifier is usable; SendInvite then only
// logs the link, which keeps local development working without a mail
// server.
func NewNotifier(config Config) *Notifier {
	if !config.isComplete() {
		return nil
	}
	return &Notifier{
		config: config,
		auth:   smtp.PlainAuth("", config.Username, config.Password, config.Host),
	}
}

func (n *Notifier) send(email, subject, body string) error {
	from := n.config.From
	if n.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.config.FromName, n.config.From)
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\nFrom: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		email, from, subject, body))

	return smtp.SendMail(n.config.Host+":"+n.config.Port, n.auth, n.config.From, []string{email}, msg)
}

func (n *Notifier) SendInvite(email, link string) error {
	if n == nil {
		slog.Info("mail not configured, skipping invite delivery", "email", email, "link", link)
		return nil
	}

	body := fmt.Sprintf(
		"You have been invited to a diary card organization.\r\n\r\n"+
			"Open the link below to accept the invitation:\r\n\r\n%s\r\n\r\n"+
			"The link expires after 7 days.\r\n", link)

	return n.send(email, "You have been invited", body)
}

func (n *Notifier) SendSignInLink(email, link string) error {
	if n == nil {
		// the link is logged so local development works without SMTP
		slog.Info("mail not configured, logging sign-in link instead", "email", email, "link", link)
		return nil
	}

	body := fmt.Sprintf(
		"Open the link below to sign in:\r\n\r\n%s\r\n\r\n"+
			"The link expires after 15 minutes. If you did not request it you can ignore this mail.\r\n", link)

	return n.send(email, "Your sign-in link", body)
}
