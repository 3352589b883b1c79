package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Handler processes one raw message. A returned error is logged and the
// message is skipped.
type Handler func(ctx context.Context, payload []byte) error

// Consume subscribes to channel and feeds every message to handle until ctx
// is done or the subscription ends.
func Consume(ctx context.Context, broker Subscriber, channel string, handle Handler) error {
	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	logger := zerolog.Ctx(ctx).With().Str("channel", channel).Logger()
	logger.Info().Msg("consuming messages")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				logger.Info().Msg("subscription closed")
				return nil
			}
			if err := handle(ctx, msg); err != nil {
				logger.Error().Err(err).Msg("failed to handle message")
			}
		}
	}
}
