package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T) *RedisService {
	t.Helper()
	mr := miniredis.RunT(t)
	svc, err := NewRedisService("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestLastReplyRoundtrip(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()

	empty, err := svc.LastReply(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if empty != "" {
		t.Fatalf("expected empty reply for unknown user, got %q", empty)
	}

	if err := svc.SetLastReply(ctx, "user-1", "te escucho"); err != nil {
		t.Fatal(err)
	}
	got, err := svc.LastReply(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "te escucho" {
		t.Fatalf("expected cached reply, got %q", got)
	}
}

func TestRecentWindowTrimsToFive(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if err := svc.PushRecentMessage(ctx, "user-1", fmt.Sprintf("mensaje %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := svc.RecentMessages(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != recentWindowSize {
		t.Fatalf("expected %d messages, got %d", recentWindowSize, len(recent))
	}
	if recent[0] != "mensaje 7" {
		t.Fatalf("expected newest first, got %q", recent[0])
	}
}
