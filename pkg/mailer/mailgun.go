package mailer

import (
	"context"
	"errors"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/frtweb/blog-backend/pkg/mailer/templates"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends mail through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), Sender: sender}
}

// Send sends an email via Mailgun. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

// ErrNoRecipient marks a job that can never be delivered.
var ErrNoRecipient = errors.New("email job has no recipient")

// Render resolves the job into subject, text and html bodies.
func Render(job EmailJob) (subject, text, html string, err error) {
	if job.To == "" {
		return "", "", "", ErrNoRecipient
	}
	if job.Template == "" {
		return job.Subject, job.Text, job.HTML, nil
	}
	return templates.Render(job.Template, job.Data)
}

// Deliver renders the job and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	subject, text, html, err := Render(job)
	if err != nil {
		return err
	}
	return s.Send(ctx, job.To, subject, text, html)
}
