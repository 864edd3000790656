package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/voicedesk/voicedesk/internal/escalation/model"
)

// EmailSender is the synchronous mail collaborator (SMTP relay or provider
// API behind it).
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// EmailTransport renders the escalation into a subject/body pair and hands
// it to the mail collaborator.
type EmailTransport struct {
	sender EmailSender
}

func NewEmailTransport(sender EmailSender) *EmailTransport {
	return &EmailTransport{sender: sender}
}

func (t *EmailTransport) Send(ctx context.Context, user *model.User, esc *model.Escalation) error {
	if user.Email == "" {
		return fmt.Errorf("user %s has no email address", user.ID)
	}
	if err := t.sender.SendEmail(ctx, user.Email, escalationTitle(esc), escalationBody(esc)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// LogEmailSender logs instead of sending. Used when no mail relay is
// configured so local runs still exercise the full dispatch path.
type LogEmailSender struct{}

func (LogEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	log.Info().Str("to", to).Str("subject", subject).Msg("email (log sender)")
	return nil
}
