// Package redis implements messaging.Broker on Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/pkg/circuitbreaker"
	"github.com/jwalitptl/specimen-gateway/pkg/messaging"
)

// subscriptionBuffer bounds how far a slow consumer may lag behind Redis.
const subscriptionBuffer = 100

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
}

func (c Config) options() (*redis.Options, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.MaxRetries = c.MaxRetries
	opts.MinRetryBackoff = c.RetryBackoff
	opts.PoolSize = c.PoolSize
	opts.MinIdleConns = c.MinIdleConns
	return opts, nil
}

type RedisBroker struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  zerolog.Logger
}

var _ messaging.Broker = (*RedisBroker)(nil)

// NewRedisBroker connects and pings Redis. Publishing goes through a
// breaker so a Redis outage does not stall request handling.
func NewRedisBroker(ctx context.Context, config Config, logger zerolog.Logger) (*RedisBroker, error) {
	opts, err := config.options()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	b := &RedisBroker{
		client: client,
		logger: logger.With().Str("component", "redis-broker").Logger(),
	}
	b.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "redis-publish",
		MaxFailures: 5,
		Timeout:     5 * time.Second,
		OnStateChange: func(_ string, from, to circuitbreaker.State) {
			b.logger.Warn().Str("from", string(from)).Str("to", string(to)).Msg("publish breaker state changed")
		},
	})
	return b, nil
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", channel, err)
	}
	return b.breaker.Execute(func() error {
		return b.client.Publish(ctx, channel, payload).Err()
	})
}

// Subscribe confirms the subscription before returning. The returned
// channel is closed once ctx is done or Redis drops the subscription.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := b.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subscriptionBuffer)
	go b.pump(ctx, sub, channel, out)
	return out, nil
}

func (b *RedisBroker) pump(ctx context.Context, sub *redis.PubSub, channel string, out chan<- []byte) {
	defer close(out)
	defer sub.Close()

	in := sub.Channel()
	for {
		var msg *redis.Message
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				b.logger.Warn().Str("channel", channel).Msg("redis subscription ended")
				return
			}
			msg = m
		}

		select {
		case out <- []byte(msg.Payload):
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
