package service

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrMailDisabled = errors.New("mail is not configured")

type MailConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// ShareMailer sends share links to the clients of an accountant
type ShareMailer struct {
	from string
	d    dialer
}

func NewShareMailer(c MailConfig) (*ShareMailer, error) {
	if c.Host == "" || c.Sender == "" {
		return nil, ErrMailDisabled
	}

	return &ShareMailer{
		from: c.Sender,
		d:    gomail.NewDialer(c.Host, c.Port, c.Sender, c.Password),
	}, nil
}

// Send mails link to sendTo. from is the display name of the accountant
// sharing the invoice and may be empty.
func (m *ShareMailer) Send(sendTo, from, link string, expiresAt time.Time) error {
	sendTo = strings.TrimSpace(sendTo)
	if sendTo == "" || strings.EqualFold(sendTo, m.from) {
		return errors.New("invalid email address")
	}

	if from == "" {
		from = "Your accountant"
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", sendTo)
	msg.SetHeader("Subject", fmt.Sprintf("%s shared an invoice with you", from))
	msg.SetBody("text/html", fmt.Sprintf(
		"%s shared an invoice with you.<br>\nClick <a href='%s'>here</a> to view it.<br>\nThis link will expire on %s",
		html.EscapeString(from), html.EscapeString(link), expiresAt.UTC().Format("2006-01-02 15:04 MST"),
	))

	if err := m.d.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send share mail, %w", err)
	}

	return nil
}
