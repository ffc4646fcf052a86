package cache

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pointsbot/pointsbot/internal/config"
	"github.com/pointsbot/pointsbot/pkg/logger"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	host, portStr, ok := strings.Cut(mr.Addr(), ":")
	if !ok {
		t.Fatalf("Unexpected miniredis address %q", mr.Addr())
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Failed to parse miniredis port: %v", err)
	}

	cfg := &config.RedisConfig{Host: host, Port: port, PoolSize: 2}
	r, err := NewRedis(cfg, logger.New("error", "json", "stdout"))
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	return r, mr
}

func TestGetMissingKeyReturnsEmpty(t *testing.T) {
	r, _ := setupRedis(t)

	val, err := r.Get(context.Background(), "claim:guild-1:user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected empty value for missing key, got %q", val)
	}
}

func TestSetGetDel(t *testing.T) {
	r, _ := setupRedis(t)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if err := r.Set(ctx, "claim:guild-1:user-1", stamp, time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := r.Get(ctx, "claim:guild-1:user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != stamp {
		t.Errorf("Expected %q, got %q", stamp, val)
	}

	if err := r.Del(ctx, "claim:guild-1:user-1"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	val, err = r.Get(ctx, "claim:guild-1:user-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected key gone after Del, got %q", val)
	}
}

func TestTTLExpiry(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	if err := r.Set(ctx, "claim:g:u", "x", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	val, err := r.Get(ctx, "claim:g:u")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != "" {
		t.Errorf("Expected expired key to read as missing, got %q", val)
	}
}
