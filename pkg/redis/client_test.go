package redis

import (
	"context"
	"testing"
	"time"

	"github.com/nasosgiannopoulosgmail/CB-Stores-Info-App/pkg/config"
)

func TestOptionsFromConfig_URLWins(t *testing.T) {
	cfg := config.RedisConfig{
		URL:          "redis://:secret@localhost:6380/2",
		Address:      "ignored:6379",
		PoolSize:     15,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 4 * time.Second,
	}

	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "localhost:6380" {
		t.Fatalf("expected addr from URL, got %q", opts.Addr)
	}
	if opts.DB != 2 {
		t.Fatalf("expected db 2, got %d", opts.DB)
	}
	if opts.PoolSize != 15 {
		t.Fatalf("expected pool size fallback 15, got %d", opts.PoolSize)
	}
}

func TestOptionsFromConfig_AddressFallback(t *testing.T) {
	cfg := config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 1}
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.Password != "pw" || opts.DB != 1 {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestOptionsFromConfig_RequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when neither URL nor address is set")
	}
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}

	if got := c.GenerationKey(); got != "cb:generation:polygons" {
		t.Fatalf("unexpected generation key %q", got)
	}

	key := c.GeoLookupKey(7, "point", "23.70000,38.00000", "delivery")
	want := "cb:geo_lookup:g7:point:23.70000,38.00000:delivery"
	if key != want {
		t.Fatalf("unexpected lookup key %q, want %q", key, want)
	}

	// blank parts are dropped
	if got := c.GeoLookupKey(1, "", "x"); got != "cb:geo_lookup:g1:x" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	c := &Client{}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
