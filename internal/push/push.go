// Package push fans realtime events out to connected clients through Redis
// pub/sub. Each live connection joins the user's room under its own
// connection id, so a user with several open sessions keeps the room open
// until the last one leaves; events for users with no open connection are
// skipped, the durable notification row is the record.
package push

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Channel interface {
	JoinRoom(ctx context.Context, userID, connID string) error
	LeaveRoom(ctx context.Context, userID, connID string) error
	Emit(ctx context.Context, userID, event string, payload any) error
}

type envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

type RedisChannel struct {
	client  *redis.Client
	roomTTL time.Duration
}

func NewRedisChannel(client *redis.Client, roomTTL time.Duration) *RedisChannel {
	return &RedisChannel{client: client, roomTTL: roomTTL}
}

func roomKey(userID string) string { return "push:room:" + userID }

// ChannelName is the pub/sub channel carrying a user's events. Exported so
// connection handlers can subscribe to it.
func ChannelName(userID string) string { return "push:user:" + userID }

func (r *RedisChannel) JoinRoom(ctx context.Context, userID, connID string) error {
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, roomKey(userID), connID)
	pipe.Expire(ctx, roomKey(userID), r.roomTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisChannel) LeaveRoom(ctx context.Context, userID, connID string) error {
	return r.client.SRem(ctx, roomKey(userID), connID).Err()
}

// Emit publishes the event to the user's channel while at least one
// connection is in the room.
func (r *RedisChannel) Emit(ctx context.Context, userID, event string, payload any) error {
	open, err := r.client.SCard(ctx, roomKey(userID)).Result()
	if err != nil {
		return err
	}
	if open == 0 {
		return nil
	}
	raw, err := json.Marshal(envelope{Event: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, ChannelName(userID), raw).Err()
}

// NopChannel drops every event. Used when Redis is not configured.
type NopChannel struct{}

func (NopChannel) JoinRoom(ctx context.Context, userID, connID string) error  { return nil }
func (NopChannel) LeaveRoom(ctx context.Context, userID, connID string) error { return nil }
func (NopChannel) Emit(ctx context.Context, userID, event string, payload any) error {
	return nil
}
