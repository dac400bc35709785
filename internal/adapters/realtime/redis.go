package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Taistois/mims/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPusher fans events out to every instance through a redis channel.
// Each instance subscribes and hands received events to its local hub.
type RedisPusher struct {
	client  *redis.Client
	channel string
	hub     *Hub
	log     *zap.Logger
}

var _ Pusher = (*RedisPusher)(nil)

// NewRedisPusher connects to redis and checks the connection
func NewRedisPusher(ctx context.Context, cfg config.RedisConfig, hub *Hub, log *zap.Logger) (*RedisPusher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPusher{
		client:  client,
		channel: cfg.Channel,
		hub:     hub,
		log:     log.Named("realtime.redis"),
	}, nil
}

// Push publishes the event for all instances
func (p *RedisPusher) Push(ctx context.Context, userID uint, event Event) error {
	event.UserID = userID
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Run delivers published events to the local hub until ctx is done.
// It returns once the subscription is confirmed and the loop is started.
func (p *RedisPusher) Run(ctx context.Context) error {
	sub := p.client.Subscribe(ctx, p.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", p.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					p.log.Error("failed to unmarshal event", zap.Error(err), zap.String("payload", msg.Payload))
					continue
				}
				_ = p.hub.Push(ctx, event.UserID, event)
			}
		}
	}()
	return nil
}

// Close closes the redis client
func (p *RedisPusher) Close() error {
	return p.client.Close()
}
