package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewLoginLimiter_Defaults(t *testing.T) {
	l := NewLoginLimiter(nil, 0, 0)
	if l.maxAttempts != defaultMaxAttempts || l.window != defaultWindow {
		t.Fatalf("expected defaults, got %d/%s", l.maxAttempts, l.window)
	}

	l = NewLoginLimiter(nil, 3, time.Minute)
	if l.maxAttempts != 3 || l.window != time.Minute {
		t.Fatalf("explicit limits ignored: %d/%s", l.maxAttempts, l.window)
	}
}

func TestLoginLimiter_KeyIsCaseInsensitive(t *testing.T) {
	l := NewLoginLimiter(nil, 0, 0)
	if got := l.key("Alice"); got != "login:fail:alice" {
		t.Fatalf("key = %q", got)
	}
	if l.key("ALICE") != l.key("alice") {
		t.Fatalf("identifiers differing only in case must share a counter")
	}
}

// TestLoginLimiter_Integration runs against a live server when REDIS_ADDR is set.
func TestLoginLimiter_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := Connect(ctx, Config{Addr: addr})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	id := "it-" + time.Now().Format("150405.000000")
	l := NewLoginLimiter(client, 2, time.Minute)
	t.Cleanup(func() { _ = l.Reset(context.Background(), id) })

	for i := 0; i < 2; i++ {
		blocked, err := l.Blocked(ctx, id)
		if err != nil || blocked {
			t.Fatalf("attempt %d: blocked=%v err=%v", i, blocked, err)
		}
		if err := l.RecordFailure(ctx, id); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if blocked, _ := l.Blocked(ctx, id); !blocked {
		t.Fatalf("expected block after max attempts")
	}

	ttl, err := client.TTL(ctx, l.key(id)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("window not armed: ttl=%s err=%v", ttl, err)
	}

	if err := l.Reset(ctx, id); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := client.Get(ctx, l.key(id)).Result(); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected key cleared, got %v", err)
	}
}
