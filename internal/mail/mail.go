// Package mail delivers transactional email over SMTP.
package mail

import (
	"context"
	"log"
	"sync"

	"gopkg.in/gomail.v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPSender struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, pass: pass, from: from}
}

// Send blocks until the message is handed to the SMTP server or ctx expires.
// gomail has no context support, so the dial-and-send runs in a goroutine
// raced against ctx.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "[Campus Helpdesk] "+subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.pass)

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Message is a delivered email as recorded by ConsoleSender.
type Message struct {
	To      string
	Subject string
	Body    string
}

// ConsoleSender logs messages instead of delivering them. It stands in for
// SMTP in development and in tests, which inspect Sent.
type ConsoleSender struct {
	mu   sync.Mutex
	sent []Message
}

func NewConsoleSender() *ConsoleSender {
	return &ConsoleSender{}
}

func (c *ConsoleSender) Send(_ context.Context, to, subject, body string) error {
	c.mu.Lock()
	c.sent = append(c.sent, Message{To: to, Subject: subject, Body: body})
	c.mu.Unlock()
	log.Printf("mail to=%s subject=%q", to, subject)
	return nil
}

func (c *ConsoleSender) Sent() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.sent))
	copy(out, c.sent)
	return out
}
