package mailer

import (
	"context"
	"fmt"

	"fitpro-server/pkg/logger"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender sends mail via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender with the given API key and from address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		logger.FromContext(ctx).Error("Failed to send mail",
			zap.Strings("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return fmt.Errorf("resend send failed: %w", err)
	}

	logger.FromContext(ctx).Info("Mail sent",
		zap.String("message_id", sent.Id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
