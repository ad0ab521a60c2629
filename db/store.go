// Package db provides the persistent premium bracket store.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"social-insurance/core/bracket"
	"social-insurance/internal/config"
)

// ErrNotFound reports that no bracket matched. A miss is a value, not a
// storage failure.
var ErrNotFound = errors.New("premium bracket not found")

// BracketStore is the single capability set over the premium_bracket table.
// LookupByAmount is the only query-path operation; the rest back the
// administrative CLI.
type BracketStore interface {
	// LookupByAmount returns the row whose half-open interval
	// [min_amount, max_amount) contains the amount, or ErrNotFound.
	LookupByAmount(ctx context.Context, amount int) (*bracket.PremiumBracket, error)

	// FindByGrade returns the row with the given grade, or ErrNotFound
	FindByGrade(ctx context.Context, grade string) (*bracket.PremiumBracket, error)

	// UpsertByGrade inserts the row or replaces the mutable columns of the
	// existing row with the same grade, bumping updated_at. An upsert that
	// would violate a table-wide invariant is rejected.
	UpsertByGrade(ctx context.Context, b *bracket.PremiumBracket) (*bracket.PremiumBracket, error)

	// DeleteByGrade removes the row with the given grade
	DeleteByGrade(ctx context.Context, grade string) error

	// FindByStdRemRange returns rows with minStdRem <= std_rem <= maxStdRem
	// ordered by std_rem.
	FindByStdRemRange(ctx context.Context, minStdRem, maxStdRem int) ([]bracket.PremiumBracket, error)

	// FindWithPositivePension returns rows with pension > 0 ordered by
	// std_rem.
	FindWithPositivePension(ctx context.Context) ([]bracket.PremiumBracket, error)

	// ListAll returns every row ordered by std_rem
	ListAll(ctx context.Context) ([]bracket.PremiumBracket, error)

	// Ping verifies backend connectivity
	Ping(ctx context.Context) error

	// Close releases the connection pool
	Close()
}

// Open constructs the store selected by the DSN scheme and wraps it in the
// snapshot cache when enabled.
func Open(ctx context.Context, cfg *config.Config) (BracketStore, error) {
	var (
		store BracketStore
		err   error
	)
	switch {
	case strings.HasPrefix(cfg.StorageDSN, "postgres://"), strings.HasPrefix(cfg.StorageDSN, "postgresql://"):
		store, err = OpenPostgres(ctx, cfg.StorageDSN, cfg.StoragePoolSize)
	case strings.HasPrefix(cfg.StorageDSN, "sqlite://"):
		store, err = OpenSQLite(strings.TrimPrefix(cfg.StorageDSN, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported storage DSN %q", cfg.StorageDSN)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		return NewCachedStore(ctx, store)
	}
	return store, nil
}
