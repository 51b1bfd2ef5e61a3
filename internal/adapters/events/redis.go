package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Conference/internal/app"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	sessionChannel = "%s:session:%s"
	globalChannel  = "%s:events"
)

// RedisSink publishes events as JSON on redis pub/sub. Session events go to
// a per-session channel, everything else to the global one.
type RedisSink struct {
	client *redis.Client
	prefix string
}

func NewRedisSink(client *redis.Client, prefix string) *RedisSink {
	if prefix == "" {
		prefix = "conference"
	}
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) Channel(ev app.Event) string {
	if ev.Session == "" {
		return fmt.Sprintf(globalChannel, s.prefix)
	}
	return fmt.Sprintf(sessionChannel, s.prefix, ev.Session)
}

func (s *RedisSink) Publish(ctx context.Context, ev app.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	ch := s.Channel(ev)
	if err := s.client.Publish(ctx, ch, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ch, err)
	}
	log.Debug().Str("module", "adapters.events").Str("channel", ch).Str("type", string(ev.Type)).Msg("event published")
	return nil
}

// Ping checks the connection at startup.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
