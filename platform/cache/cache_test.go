package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return NewWithClient(client, time.Minute), srv
}

func TestCache_SetGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}

	if err := c.Set(ctx, "catalog:mt-07", payload{Name: "MT-07", Price: 150000}, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := c.Get(ctx, "catalog:mt-07", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "MT-07" || got.Price != 150000 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got string
	if err := c.Get(context.Background(), "absent", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestCache_FetchFillsOnMiss(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fill := func(ctx context.Context) (interface{}, error) {
		calls++
		return []string{"Corto Plazo Interno", "Largo Plazo"}, nil
	}

	var got []string
	if err := c.Fetch(ctx, "financing:types", &got, fill); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 types, got %d", len(got))
	}

	// Second fetch must come from the cache.
	got = nil
	if err := c.Fetch(ctx, "financing:types", &got, fill); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 fill call, got %d", calls)
	}
	if len(got) != 2 {
		t.Fatalf("expected cached value, got %v", got)
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "financing:types:all", "a", 0)
	_ = c.Set(ctx, "financing:types:MT-07", "b", 0)
	_ = c.Set(ctx, "other", "c", 0)

	if err := c.DeletePrefix(ctx, "financing:types:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}

	var got string
	if err := c.Get(ctx, "financing:types:all", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected deleted key, got %v", err)
	}
	if err := c.Get(ctx, "other", &got); err != nil {
		t.Fatalf("unrelated key should survive: %v", err)
	}
}

func TestCache_NilCacheAlwaysFills(t *testing.T) {
	var c *Cache

	calls := 0
	var got int
	for i := 0; i < 2; i++ {
		if err := c.Fetch(context.Background(), "k", &got, func(ctx context.Context) (interface{}, error) {
			calls++
			return 42, nil
		}); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if calls != 2 || got != 42 {
		t.Fatalf("nil cache should call fill every time, calls=%d got=%d", calls, got)
	}
}
