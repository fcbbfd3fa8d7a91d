package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/alertpipe/alertpipe/internal/alert"
)

// Sender is the mail-sending collaborator behind the email channel. The
// engine does not speak SMTP itself.
type Sender interface {
	Send(ctx context.Context, from string, to []string, subject, body string) error
}

// Email renders alerts into messages and hands them to a Sender.
type Email struct {
	sender     Sender
	from       string
	recipients []string
}

// NewEmail creates an email channel delegating to sender.
func NewEmail(sender Sender, from string, recipients []string) *Email {
	return &Email{sender: sender, from: from, recipients: recipients}
}

func (c *Email) Name() string { return "email" }

// Deliver renders a subject/body pair and sends it to all recipients.
func (c *Email) Deliver(ctx context.Context, a *alert.Alert) error {
	subject := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(string(a.Severity)), a.Type, a.ID)

	var body strings.Builder
	fmt.Fprintf(&body, "%s\n\n", a.Message)
	fmt.Fprintf(&body, "Alert:    %s\n", a.ID)
	fmt.Fprintf(&body, "Type:     %s\n", a.Type)
	fmt.Fprintf(&body, "Severity: %s\n", a.Severity)
	fmt.Fprintf(&body, "Source:   %s@%s\n", a.Source, a.Host)
	fmt.Fprintf(&body, "Raised:   %s\n", a.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))

	if err := c.sender.Send(ctx, c.from, c.recipients, subject, body.String()); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}
