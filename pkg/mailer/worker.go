package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/go-storefront/pkg/mailer/templates"
)

// ErrBadJob marks messages that can never be delivered and must not be requeued.
var ErrBadJob = errors.New("bad email job")

// SendFunc delivers a rendered email; *Mailgun.Send satisfies it.
type SendFunc func(ctx context.Context, to, subject, text, html string) error

// ProcessJob decodes, renders and sends one queued email.
// Errors wrapping ErrBadJob should be dropped; other errors are worth a retry.
func ProcessJob(ctx context.Context, body []byte, send SendFunc) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrBadJob, err)
	}
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrBadJob)
	}
	job.Normalize()

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrBadJob, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrBadJob)
	}
	return send(ctx, job.To, subject, text, html)
}
