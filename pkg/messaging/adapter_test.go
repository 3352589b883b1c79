package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanBroker struct {
	ch  chan []byte
	err error
}

func (b *chanBroker) Publish(context.Context, string, interface{}) error { return nil }

func (b *chanBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.ch, b.err
}

func (b *chanBroker) Close() error { return nil }

func TestConsume_HandlesUntilClosed(t *testing.T) {
	b := &chanBroker{ch: make(chan []byte, 3)}
	b.ch <- []byte("one")
	b.ch <- []byte("bad")
	b.ch <- []byte("two")
	close(b.ch)

	var got []string
	err := Consume(context.Background(), b, "audit", func(_ context.Context, p []byte) error {
		if string(p) == "bad" {
			return errors.New("undecodable")
		}
		got = append(got, string(p))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestConsume_StopsOnContext(t *testing.T) {
	b := &chanBroker{ch: make(chan []byte)}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Consume(ctx, b, "audit", func(context.Context, []byte) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConsume_SubscribeError(t *testing.T) {
	b := &chanBroker{err: errors.New("no redis")}
	err := Consume(context.Background(), b, "audit", nil)
	assert.Error(t, err)
}
