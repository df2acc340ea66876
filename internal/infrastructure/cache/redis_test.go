package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestOpenRedis_Success(t *testing.T) {
	// Start in-memory Redis
	s := miniredis.RunT(t)
	defer s.Close()

	// Use a non-zero DB to verify it's set
	c, err := OpenRedis(s.Addr(), 2)
	if err != nil {
		t.Fatalf("OpenRedis returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	// Check the client actually works and uses the right DB
	if got := c.Options().DB; got != 2 {
		t.Fatalf("client DB = %d, want 2", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := c.Set(ctx, "k", "v", 0).Err(); err != nil {
		t.Fatalf("SET err: %v", err)
	}
	v, err := c.Get(ctx, "k").Result()
	if err != nil {
		t.Fatalf("GET err: %v", err)
	}
	if v != "v" {
		t.Fatalf("GET value = %q, want %q", v, "v")
	}
}

func TestOpenRedis_Failure(t *testing.T) {
	// Unresolvable host → Ping should fail immediately (no 5s delay)
	if _, err := OpenRedis("not-a-real-host:6379", 0); err == nil {
		t.Fatal("expected error, got nil")
	}
}

type profile struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func TestJSON_RoundTripAndTTL(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := OpenRedis(s.Addr(), 0)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	store := NewJSON[profile](c, "p:", time.Minute)

	if _, ok, err := store.Get(ctx, "kim"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "kim", profile{Name: "Kim", Level: 3}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Exists("p:kim") {
		t.Fatalf("key not written under prefix")
	}
	if ttl := s.TTL("p:kim"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	got, ok, err := store.Get(ctx, "kim")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Name != "Kim" || got.Level != 3 {
		t.Fatalf("Get = %+v", got)
	}

	s.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "kim"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestJSON_CorruptValueIsMiss(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := OpenRedis(s.Addr(), 0)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	_ = s.Set("p:bad", "{not json")
	store := NewJSON[profile](c, "p:", time.Minute)
	if _, ok, err := store.Get(context.Background(), "bad"); ok || err != nil {
		t.Fatalf("corrupt value: ok=%v err=%v", ok, err)
	}
	if s.Exists("p:bad") {
		t.Fatalf("corrupt value should be evicted")
	}
}

func TestJSON_ClaimOnce(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := OpenRedis(s.Addr(), 0)
	if err != nil {
		t.Fatalf("OpenRedis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	store := NewJSON[profile](c, "p:", time.Hour)

	won, err := store.Claim(ctx, "lee", profile{Name: "Lee"}, 10*time.Second)
	if err != nil || !won {
		t.Fatalf("first claim: won=%v err=%v", won, err)
	}
	if ttl := s.TTL("p:lee"); ttl != 10*time.Second {
		t.Fatalf("claim ttl = %v, want 10s", ttl)
	}
	won, err = store.Claim(ctx, "lee", profile{Name: "Other"}, 10*time.Second)
	if err != nil || won {
		t.Fatalf("second claim: won=%v err=%v", won, err)
	}
	got, _, _ := store.Get(ctx, "lee")
	if got.Name != "Lee" {
		t.Fatalf("claim overwritten: %+v", got)
	}
}
