// Package mailer sends transactional email over SMTP.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

type Message struct {
	To []string
	// Bcc recipients are not listed in the headers.
	Bcc     []string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SMTPMailer struct {
	cfg  SMTPConfig
	addr string
	auth smtp.Auth
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	m := &SMTPMailer{cfg: cfg, addr: cfg.Host + ":" + strconv.Itoa(cfg.Port)}
	// relays such as MailHog take no auth
	if cfg.User != "" {
		m.auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To)+len(msg.Bcc) == 0 {
		return fmt.Errorf("send mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = msg.To
	e.Bcc = msg.Bcc
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	if err := e.Send(m.addr, m.auth); err != nil {
		return fmt.Errorf("send mail to %d recipient(s): %w", len(msg.To)+len(msg.Bcc), err)
	}
	return nil
}
