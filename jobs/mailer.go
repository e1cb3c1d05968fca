package jobs

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends plain-text mail. The production implementation talks to the
// configured SMTP relay; tests substitute a recorder.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer delivers mail over an unauthenticated SMTP relay.
type SMTPMailer struct {
	Addr string
	From string
}

// Send delivers one message.
func (m SMTPMailer) Send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg.String()))
}
