// Package email sends multipart text+HTML mail over SMTP.
package email

import (
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
)

// Message is one outbound email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	BodyText string
	BodyHTML string
}

// Send delivers a message via the given SMTP server. Authentication is
// skipped when username is empty (local relays such as mailhog).
func Send(server string, port int, username, password string, msg Message) error {
	if !strings.Contains(msg.To, "@") {
		return fmt.Errorf("invalid email address: %s", msg.To)
	}

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, server)
	}

	addr := fmt.Sprintf("%s:%d", server, port)
	return smtp.SendMail(addr, auth, msg.From, []string{msg.To}, build(msg))
}

func build(msg Message) []byte {
	const boundary = "datapact-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", msg.FromName, msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	writePart(&b, boundary, "text/plain", msg.BodyText)
	writePart(&b, boundary, "text/html", msg.BodyHTML)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=\"utf-8\"\r\n", contentType)
	b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	w := quotedprintable.NewWriter(b)
	_, _ = w.Write([]byte(body))
	_ = w.Close()
	b.WriteString("\r\n")
}
