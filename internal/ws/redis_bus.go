package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"log/slog"

	"github.com/ghomren619/talk-caves/internal/app"
)

// BusMessage is a room frame relayed between instances. Origin lets an
// instance skip frames it published itself.
type BusMessage struct {
	Origin string `json:"origin"`
	RoomID string `json:"room_id"`
	Frame  []byte `json:"frame"`
}

type RedisBus struct {
	rdb *redis.Client
	log *slog.Logger
}

// NewRedisBus connects to redis and verifies connectivity
func NewRedisBus(ctx context.Context, cfg app.Config, log *slog.Logger) (*RedisBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBus{rdb: rdb, log: log}, nil
}

// Publish sends a frame to the redis channel for a room
func (b *RedisBus) Publish(ctx context.Context, m BusMessage) error {
	raw, _ := json.Marshal(m)
	return b.rdb.Publish(ctx, channel(m.RoomID), raw).Err()
}

// Subscribe listens to all room channels and invokes fn for each frame
func (b *RedisBus) Subscribe(ctx context.Context, fn func(BusMessage)) {
	pubsub := b.rdb.PSubscribe(ctx, channel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			_ = json.Unmarshal([]byte(msg.Payload), &bm)
			if bm.RoomID != "" {
				fn(bm)
			}
		}
	}
}

// Close shuts down the redis connection
func (b *RedisBus) Close() { _ = b.rdb.Close() }

// channel namespacing for room pub/sub
func channel(roomID string) string { return "room:" + roomID }
