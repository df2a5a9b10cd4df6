package mailer

import (
	"context"

	"fitpro-server/pkg/logger"

	"go.uber.org/zap"
)

// NoopSender logs instead of sending. Used in development and tests when no
// API key is configured.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg Message) error {
	logger.FromContext(ctx).Info("Mail suppressed (noop sender)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
