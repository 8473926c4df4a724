package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel settings updates are published on.
const DefaultChannel = "reflex:emulator:settings"

// RedisPublisher publishes settings updates on a Redis Pub/Sub channel.
type RedisPublisher struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisPublisher creates a publisher for channel. An empty channel
// means DefaultChannel.
func NewRedisPublisher(rdb *goredis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, evt SettingsUpdated) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal settings update: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish settings update: %w", err)
	}
	return nil
}

// Subscription receives settings updates published on a channel.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan SettingsUpdated
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// Subscribe listens for settings updates on the publisher's channel.
// Messages that do not decode are logged and dropped. Ch is closed when
// ctx ends or Close is called.
func (p *RedisPublisher) Subscribe(ctx context.Context, logger *log.Logger) *Subscription {
	sub := p.rdb.Subscribe(ctx, p.channel)

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan SettingsUpdated, 16)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var evt SettingsUpdated
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					if logger != nil {
						logger.Warn("dropping undecodable settings update", "channel", msg.Channel, "err", err)
					}
					continue
				}
				select {
				case ch <- evt:
				case <-subCtx.Done():
					return
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{sub: sub, Ch: ch, cancel: cancel}
}
