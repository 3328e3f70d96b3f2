// Package notify publishes post change events over Redis pub/sub so that other processes
// can push them to connected clients.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aloks98/gofeed"
)

// DefaultChannel is the pub/sub channel post events are published on.
const DefaultChannel = "posts"

// Publisher implements gofeed.Notifier on top of Redis PUBLISH.
type Publisher struct {
	client  redis.Cmdable
	channel string
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithChannel overrides the pub/sub channel.
func WithChannel(channel string) PublisherOption {
	return func(p *Publisher) {
		if channel != "" {
			p.channel = channel
		}
	}
}

// NewPublisher creates a publisher that writes JSON encoded events to the posts channel.
func NewPublisher(client redis.Cmdable, opts ...PublisherOption) *Publisher {
	p := &Publisher{client: client, channel: DefaultChannel}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Channel returns the channel events are published on.
func (p *Publisher) Channel() string {
	return p.channel
}

// Notify publishes e.
func (p *Publisher) Notify(ctx context.Context, e gofeed.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	return nil
}

// Subscription delivers decoded events from a channel.
type Subscription struct {
	pubsub *redis.PubSub
	events chan gofeed.Event
	done   chan struct{}
}

// Subscribe listens on channel (DefaultChannel when empty) and decodes each message into an
// Event. Messages that are not valid events are skipped. The subscription is ready when
// Subscribe returns.
func Subscribe(ctx context.Context, client redis.UniversalClient, channel string) (*Subscription, error) {
	if channel == "" {
		channel = DefaultChannel
	}

	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("notify: subscribe: %w", err)
	}

	s := &Subscription{
		pubsub: pubsub,
		events: make(chan gofeed.Event),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

func (s *Subscription) run() {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var e gofeed.Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			continue
		}
		select {
		case s.events <- e:
		case <-s.done:
			return
		}
	}
}

// Events returns the channel of received events. It is closed after Close.
func (s *Subscription) Events() <-chan gofeed.Event {
	return s.events
}

// Close stops the subscription.
func (s *Subscription) Close() error {
	close(s.done)
	return s.pubsub.Close()
}

var _ gofeed.Notifier = (*Publisher)(nil)
