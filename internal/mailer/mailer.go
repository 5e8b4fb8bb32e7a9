// Package mailer delivers the verification and reset emails over SMTP. It
// runs in the mail_sender worker, fed by the RabbitMQ queue.
package mailer

import (
	"fmt"

	"skillswap/internal/models"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Deliver renders the template for the message purpose and sends it with both
// HTML and plain-text bodies.
func (m *Mailer) Deliver(msg models.EmailMessage) error {
	const op = "mailer.Deliver"

	var (
		subject, htmlBody, textBody string
		err                         error
	)

	switch msg.Purpose {
	case models.PurposeVerification:
		subject, htmlBody, textBody, err = VerificationEmail(msg.Name, msg.Link)
	case models.PurposePasswordReset:
		subject, htmlBody, textBody, err = PasswordResetEmail(msg.Name, msg.Link)
	default:
		return fmt.Errorf("%s: unknown purpose %q", op, msg.Purpose)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return m.send(msg.Email, subject, htmlBody, textBody)
}

func (m *Mailer) send(to, subject, htmlBody, textBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/plain", textBody)
	msg.AddAlternative("text/html", htmlBody)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}
