package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frtweb/blog-backend/pkg/mailer/templates"
)

type captureSender struct {
	to, subject, text, html string
}

func (c *captureSender) Send(_ context.Context, to, subject, text, html string) error {
	c.to, c.subject, c.text, c.html = to, subject, text, html
	return nil
}

func TestDeliverTemplate(t *testing.T) {
	s := &captureSender{}
	job := EmailJob{
		To:       "ann@example.com",
		Template: TemplatePostPublished,
		Data: templates.ToMap(templates.PostPublishedData{
			Name:      "Ann",
			Title:     "Robots <3",
			Publisher: "Bob",
			URL:       "https://frt.example/blog/x",
		}),
	}

	require.NoError(t, Deliver(context.Background(), s, job))
	assert.Equal(t, "ann@example.com", s.to)
	assert.Contains(t, s.subject, "Robots <3")
	assert.Contains(t, s.text, "Bob")
	assert.Contains(t, s.html, "Robots &lt;3")
	assert.Contains(t, s.html, `href="https://frt.example/blog/x"`)
}

func TestDeliverPlain(t *testing.T) {
	s := &captureSender{}
	require.NoError(t, Deliver(context.Background(), s, EmailJob{To: "a@b.c", Subject: "hi", Text: "body"}))
	assert.Equal(t, "hi", s.subject)
	assert.Equal(t, "body", s.text)
}

func TestDeliverRejectsMissingRecipient(t *testing.T) {
	assert.ErrorIs(t, Deliver(context.Background(), &captureSender{}, EmailJob{Subject: "x"}), ErrNoRecipient)
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render(EmailJob{To: "a@b.c", Template: "nope"})
	assert.Error(t, err)
}
