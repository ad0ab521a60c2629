package db

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"social-insurance/core/bracket"
)

// countingBackend wraps a real sqlite store and counts lookup traffic so the
// tests can prove the cache answers without hitting the backend.
type countingBackend struct {
	*SQLiteStore
	lookups atomic.Int64
}

func (c *countingBackend) LookupByAmount(ctx context.Context, amount int) (*bracket.PremiumBracket, error) {
	c.lookups.Add(1)
	return c.SQLiteStore.LookupByAmount(ctx, amount)
}

func TestCachedStoreServesFromSnapshot(t *testing.T) {
	inner := openTestStore(t)
	seedSchedule(t, inner)
	backend := &countingBackend{SQLiteStore: inner}

	cache, err := NewCachedStore(context.Background(), backend)
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}

	for i := 0; i < 10; i++ {
		b, err := cache.LookupByAmount(context.Background(), 650000)
		if err != nil {
			t.Fatalf("LookupByAmount: %v", err)
		}
		if b.Grade != "32" {
			t.Errorf("grade = %s, want 32", b.Grade)
		}
	}
	if n := backend.lookups.Load(); n != 0 {
		t.Errorf("cache forwarded %d lookups to the backend, want 0", n)
	}
}

func TestCachedStoreRefreshAfterMutation(t *testing.T) {
	inner := openTestStore(t)
	seedSchedule(t, inner)

	cache, err := NewCachedStore(context.Background(), inner)
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}
	ctx := context.Background()

	next := seedBracket("33", 680000, 665000, 695000, "50000.00", "59000.00", "59475.00")
	if _, err := cache.UpsertByGrade(ctx, next); err != nil {
		t.Fatalf("UpsertByGrade: %v", err)
	}
	if b, err := cache.LookupByAmount(ctx, 670000); err != nil || b.Grade != "33" {
		t.Errorf("lookup after upsert = %v, %v; want grade 33", b, err)
	}

	if err := cache.DeleteByGrade(ctx, "33"); err != nil {
		t.Fatalf("DeleteByGrade: %v", err)
	}
	if _, err := cache.LookupByAmount(ctx, 670000); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookup after delete err = %v, want ErrNotFound", err)
	}
}

func TestCachedStoreEmptyTable(t *testing.T) {
	inner := openTestStore(t)

	cache, err := NewCachedStore(context.Background(), inner)
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}
	if _, err := cache.LookupByAmount(context.Background(), 650000); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty snapshot lookup err = %v, want ErrNotFound", err)
	}
}
