package messaging

import "context"

// Publisher sends one message on a channel. Implementations choose the
// wire encoding; the Redis broker uses JSON.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Subscriber delivers raw payloads from a channel until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Broker is a Publisher and Subscriber backed by one connection.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}
