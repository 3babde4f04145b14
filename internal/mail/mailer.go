// Package mail delivers the confirmation and password-reset codes.
// Delivery is fire-and-forget: a failed send is logged and never rolls
// back the account or token write that preceded it.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindPasswordReset Kind = "password_reset"
)

type Mailer interface {
	Send(kind Kind, address, name, token string)
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func (m *SMTPMailer) Send(kind Kind, address, name, token string) {
	go func() {
		subject, body := compose(kind, name, token)
		msg := strings.Join([]string{
			"From: " + m.From,
			"To: " + address,
			"Subject: " + subject,
			"",
			body,
		}, "\r\n")

		var auth smtp.Auth
		if m.User != "" {
			auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
		}
		addr := m.Host + ":" + m.Port
		if err := smtp.SendMail(addr, auth, m.From, []string{address}, []byte(msg)); err != nil {
			log.Printf("Failed to send %s mail to %s: %v", kind, address, err)
			return
		}
		log.Printf("Sent %s mail to %s", kind, address)
	}()
}

// LogMailer writes outgoing mail to the process log. Used in development
// and when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(kind Kind, address, name, token string) {
	subject, _ := compose(kind, name, token)
	log.Printf("mail to %s: %s (code %s)", address, subject, token)
}

func compose(kind Kind, name, token string) (subject, body string) {
	switch kind {
	case KindPasswordReset:
		subject = "Reset your password"
		body = fmt.Sprintf(
			"Hi %s,\n\nUse the code %s to set a new password.\nThe code expires shortly.\n",
			name, token)
	default:
		subject = "Confirm your account"
		body = fmt.Sprintf(
			"Hi %s,\n\nWelcome! Use the code %s to confirm your account.\n",
			name, token)
	}
	return subject, body
}
