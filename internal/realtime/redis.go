package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel realtime messages travel on between processes
const Channel = "streamify:realtime"

// RedisBroadcaster publishes events for a Relay in the API process to deliver
type RedisBroadcaster struct {
	rdb *redis.Client
}

func NewRedisBroadcaster(rdb *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{rdb: rdb}
}

func (b *RedisBroadcaster) Emit(ctx context.Context, userID, event string, payload any) error {
	msg, err := newMessage(userID, event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, Channel, data).Err()
}

// Relay forwards messages published on Channel into a local Hub
type Relay struct {
	rdb *redis.Client
	hub *Hub
}

func NewRelay(rdb *redis.Client, hub *Hub) *Relay {
	return &Relay{rdb: rdb, hub: hub}
}

// Run blocks until ctx is cancelled
func (r *Relay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	slog.Info("Realtime relay subscribed", "channel", Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(m.Payload)
		}
	}
}

func (r *Relay) handle(data string) {
	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		slog.Warn("Dropping malformed realtime message", "error", err)
		return
	}
	if msg.UserID == "" || msg.Event == "" {
		slog.Warn("Dropping realtime message without user or event")
		return
	}
	r.hub.Publish(msg)
}
