package db

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"social-insurance/core/bracket"
	"social-insurance/internal/logging"
)

// CachedStore serves lookups from an in-memory snapshot of the whole table.
// The snapshot is rebuilt after every administrative mutation and swapped
// atomically, so readers never observe a torn state. The query path takes
// no locks.
type CachedStore struct {
	backend BracketStore
	snap    atomic.Pointer[bracket.Table]
}

// NewCachedStore loads the initial snapshot from the backend
func NewCachedStore(ctx context.Context, backend BracketStore) (*CachedStore, error) {
	c := &CachedStore{backend: backend}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh reloads the table and swaps the snapshot. An inconsistent table
// is still served, with deterministic answers, but every breach is logged.
func (c *CachedStore) Refresh(ctx context.Context) error {
	rows, err := c.backend.ListAll(ctx)
	if err != nil {
		return err
	}

	table, err := bracket.New(rows)
	if err != nil {
		table = bracket.NewLenient(rows)
		for _, breach := range table.Breaches() {
			logging.Error("bracket table invariant breach", zap.String("breach", breach))
		}
	}

	c.snap.Store(table)
	return nil
}

// LookupByAmount answers from the snapshot without touching the backend
func (c *CachedStore) LookupByAmount(ctx context.Context, amount int) (*bracket.PremiumBracket, error) {
	b, ok := c.snap.Load().LookupByAmount(amount)
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// FindByGrade delegates to the backend
func (c *CachedStore) FindByGrade(ctx context.Context, grade string) (*bracket.PremiumBracket, error) {
	return c.backend.FindByGrade(ctx, grade)
}

// UpsertByGrade writes through and refreshes the snapshot
func (c *CachedStore) UpsertByGrade(ctx context.Context, b *bracket.PremiumBracket) (*bracket.PremiumBracket, error) {
	saved, err := c.backend.UpsertByGrade(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteByGrade writes through and refreshes the snapshot
func (c *CachedStore) DeleteByGrade(ctx context.Context, grade string) error {
	if err := c.backend.DeleteByGrade(ctx, grade); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// FindByStdRemRange delegates to the backend
func (c *CachedStore) FindByStdRemRange(ctx context.Context, minStdRem, maxStdRem int) ([]bracket.PremiumBracket, error) {
	return c.backend.FindByStdRemRange(ctx, minStdRem, maxStdRem)
}

// FindWithPositivePension delegates to the backend
func (c *CachedStore) FindWithPositivePension(ctx context.Context) ([]bracket.PremiumBracket, error) {
	return c.backend.FindWithPositivePension(ctx)
}

// ListAll delegates to the backend
func (c *CachedStore) ListAll(ctx context.Context) ([]bracket.PremiumBracket, error) {
	return c.backend.ListAll(ctx)
}

// Ping verifies backend connectivity
func (c *CachedStore) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

// Close closes the backend
func (c *CachedStore) Close() {
	c.backend.Close()
}
