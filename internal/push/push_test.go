package push

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestChannel(t *testing.T) (*RedisChannel, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisChannel(client, time.Hour), client
}

func subscribe(t *testing.T, client *redis.Client, userID string) *redis.PubSub {
	t.Helper()
	sub := client.Subscribe(context.Background(), ChannelName(userID))
	t.Cleanup(func() { sub.Close() })
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return sub
}

func TestEmitDeliversToJoinedUser(t *testing.T) {
	ch, client := newTestChannel(t)
	ctx := context.Background()
	sub := subscribe(t, client, "u1")

	if err := ch.JoinRoom(ctx, "u1", "conn-1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := ch.Emit(ctx, "u1", "notification", map[string]string{"message": "hello"}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var env struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Event != "notification" {
		t.Fatalf("event = %q, want notification", env.Event)
	}
}

func TestEmitSkipsUserWithoutRoom(t *testing.T) {
	ch, client := newTestChannel(t)
	ctx := context.Background()

	if err := ch.Emit(ctx, "u2", "notification", "ignored"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	subs, err := client.PubSubNumSub(ctx, ChannelName("u2")).Result()
	if err != nil {
		t.Fatalf("numsub: %v", err)
	}
	if subs[ChannelName("u2")] != 0 {
		t.Fatalf("unexpected subscriber")
	}
}

func TestLeaveLastConnectionStopsDelivery(t *testing.T) {
	ch, client := newTestChannel(t)
	ctx := context.Background()

	if err := ch.JoinRoom(ctx, "u3", "conn-1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := ch.LeaveRoom(ctx, "u3", "conn-1"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	sub := subscribe(t, client, "u3")
	if err := ch.Emit(ctx, "u3", "notification", "dropped"); err != nil {
		t.Fatalf("emit: %v", err)
	}

	recvCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := sub.ReceiveMessage(recvCtx); err == nil {
		t.Fatalf("received message after room closed")
	}
}

func TestRoomStaysOpenWhileOtherConnectionsRemain(t *testing.T) {
	ch, client := newTestChannel(t)
	ctx := context.Background()
	sub := subscribe(t, client, "u4")

	if err := ch.JoinRoom(ctx, "u4", "conn-1"); err != nil {
		t.Fatalf("join conn-1: %v", err)
	}
	if err := ch.JoinRoom(ctx, "u4", "conn-2"); err != nil {
		t.Fatalf("join conn-2: %v", err)
	}
	if err := ch.LeaveRoom(ctx, "u4", "conn-1"); err != nil {
		t.Fatalf("leave conn-1: %v", err)
	}

	// conn-2 is still in the room, so the event goes out.
	if err := ch.Emit(ctx, "u4", "notification", "still here"); err != nil {
		t.Fatalf("emit: %v", err)
	}
	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if msg.Payload == "" {
		t.Fatalf("empty payload")
	}

	// The last leave closes the room.
	if err := ch.LeaveRoom(ctx, "u4", "conn-2"); err != nil {
		t.Fatalf("leave conn-2: %v", err)
	}
	if err := ch.Emit(ctx, "u4", "notification", "gone"); err != nil {
		t.Fatalf("emit after close: %v", err)
	}
	recvCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if _, err := sub.ReceiveMessage(recvCtx); err == nil {
		t.Fatalf("received message after last connection left")
	}
}
