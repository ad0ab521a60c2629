package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"social-insurance/core/bracket"
	apperrors "social-insurance/internal/errors"
	"social-insurance/internal/logging"
)

// maxLookupRetries bounds transient-failure retries inside the store. The
// per-request context deadline caps the total time regardless.
const maxLookupRetries = 3

// The decimal columns are cast to text so the scan is backend-exact.
const pgBracketColumns = "id, grade, std_rem, min_amount, max_amount, health_no_care::text, health_care::text, pension::text, created_at, updated_at"

// PostgresStore is the pgx-backed bracket store
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pooled Postgres-backed store
func OpenPostgres(ctx context.Context, dsn string, poolSize int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse storage DSN: %w", err)
	}
	if poolSize > 0 {
		poolCfg.MaxConns = int32(poolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.Storage("connect to storage backend", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// LookupByAmount pushes the range predicate down to SQL. A second matching
// row only ever exists when the non-overlap invariant is broken; the row
// with the smallest min_amount is still returned deterministically and the
// breach is reported.
func (s *PostgresStore) LookupByAmount(ctx context.Context, amount int) (*bracket.PremiumBracket, error) {
	const q = `SELECT ` + pgBracketColumns + `
		FROM premium_bracket
		WHERE min_amount <= $1 AND max_amount > $1
		ORDER BY min_amount
		LIMIT 2`

	var found *bracket.PremiumBracket
	err := s.withRetry(ctx, func() error {
		rows, err := s.pool.Query(ctx, q, amount)
		if err != nil {
			return apperrors.Storage("bracket lookup query", err)
		}
		matches, err := scanBrackets(rows)
		if err != nil {
			return backoff.Permanent(err)
		}
		if len(matches) == 0 {
			return backoff.Permanent(ErrNotFound)
		}
		if len(matches) > 1 {
			logging.Error("bracket table invariant breach: overlapping intervals",
				zap.Int("amount", amount),
				zap.String("grade", matches[0].Grade),
				zap.String("overlapping_grade", matches[1].Grade))
		}
		found = &matches[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindByGrade returns the row with the given grade
func (s *PostgresStore) FindByGrade(ctx context.Context, grade string) (*bracket.PremiumBracket, error) {
	const q = `SELECT ` + pgBracketColumns + ` FROM premium_bracket WHERE grade = $1`

	row, err := s.queryOne(ctx, q, grade)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// UpsertByGrade replaces the mutable columns of the row with the same
// grade, or inserts the row. The would-be table state is validated first,
// and the mutation is serialized against concurrent admin writes.
func (s *PostgresStore) UpsertByGrade(ctx context.Context, b *bracket.PremiumBracket) (*bracket.PremiumBracket, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, apperrors.Storage("begin upsert transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `LOCK TABLE premium_bracket IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, apperrors.Storage("lock bracket table", err)
	}

	rows, err := tx.Query(ctx, `SELECT `+pgBracketColumns+` FROM premium_bracket ORDER BY min_amount`)
	if err != nil {
		return nil, apperrors.Storage("load bracket table", err)
	}
	existing, err := scanBrackets(rows)
	if err != nil {
		return nil, err
	}
	if err := validateUpsert(existing, b); err != nil {
		return nil, err
	}

	const q = `INSERT INTO premium_bracket
			(grade, std_rem, min_amount, max_amount, health_no_care, health_care, pension, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (grade) DO UPDATE SET
			std_rem        = EXCLUDED.std_rem,
			min_amount     = EXCLUDED.min_amount,
			max_amount     = EXCLUDED.max_amount,
			health_no_care = EXCLUDED.health_no_care,
			health_care    = EXCLUDED.health_care,
			pension        = EXCLUDED.pension,
			updated_at     = now()
		RETURNING ` + pgBracketColumns

	saved, err := scanOneBracket(tx.QueryRow(ctx, q,
		b.Grade, b.StdRem, b.MinAmount, b.MaxAmount,
		b.HealthNoCare.String(), b.HealthCare.String(), b.Pension.String()))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Storage("commit upsert", err)
	}
	return saved, nil
}

// DeleteByGrade removes the row with the given grade
func (s *PostgresStore) DeleteByGrade(ctx context.Context, grade string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM premium_bracket WHERE grade = $1`, grade)
	if err != nil {
		return apperrors.Storage("delete bracket", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByStdRemRange returns rows inside the std_rem range ordered by std_rem
func (s *PostgresStore) FindByStdRemRange(ctx context.Context, minStdRem, maxStdRem int) ([]bracket.PremiumBracket, error) {
	const q = `SELECT ` + pgBracketColumns + `
		FROM premium_bracket
		WHERE std_rem >= $1 AND std_rem <= $2
		ORDER BY std_rem`

	return s.queryMany(ctx, q, minStdRem, maxStdRem)
}

// FindWithPositivePension returns rows with pension > 0 ordered by std_rem
func (s *PostgresStore) FindWithPositivePension(ctx context.Context) ([]bracket.PremiumBracket, error) {
	const q = `SELECT ` + pgBracketColumns + `
		FROM premium_bracket
		WHERE pension > 0
		ORDER BY std_rem`

	return s.queryMany(ctx, q)
}

// ListAll returns the whole table ordered by std_rem
func (s *PostgresStore) ListAll(ctx context.Context) ([]bracket.PremiumBracket, error) {
	const q = `SELECT ` + pgBracketColumns + ` FROM premium_bracket ORDER BY std_rem`
	return s.queryMany(ctx, q)
}

// Ping verifies backend connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperrors.Storage("storage backend unreachable", err)
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) queryOne(ctx context.Context, q string, args ...any) (*bracket.PremiumBracket, error) {
	var found *bracket.PremiumBracket
	err := s.withRetry(ctx, func() error {
		b, err := scanOneBracket(s.pool.QueryRow(ctx, q, args...))
		if err != nil {
			if apperrors.IsKind(err, apperrors.KindStorage) {
				return err
			}
			return backoff.Permanent(err)
		}
		found = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *PostgresStore) queryMany(ctx context.Context, q string, args ...any) ([]bracket.PremiumBracket, error) {
	var found []bracket.PremiumBracket
	err := s.withRetry(ctx, func() error {
		rows, err := s.pool.Query(ctx, q, args...)
		if err != nil {
			return apperrors.Storage("bracket query", err)
		}
		brackets, err := scanBrackets(rows)
		if err != nil {
			return backoff.Permanent(err)
		}
		found = brackets
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// withRetry retries transient backend failures with bounded exponential
// backoff. Typed domain errors and NotFound pass through unretried, and the
// context deadline aborts the attempts early.
func (s *PostgresStore) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxLookupRetries), ctx)
	return backoff.Retry(op, policy)
}

func scanBrackets(rows pgx.Rows) ([]bracket.PremiumBracket, error) {
	defer rows.Close()

	var out []bracket.PremiumBracket
	for rows.Next() {
		var r bracketRow
		if err := rows.Scan(&r.ID, &r.Grade, &r.StdRem, &r.MinAmount, &r.MaxAmount,
			&r.HealthNoCare, &r.HealthCare, &r.Pension, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, apperrors.Storage("scan bracket row", err)
		}
		b, err := r.toBracket()
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("read bracket rows", err)
	}
	return out, nil
}

func scanOneBracket(row pgx.Row) (*bracket.PremiumBracket, error) {
	var r bracketRow
	err := row.Scan(&r.ID, &r.Grade, &r.StdRem, &r.MinAmount, &r.MaxAmount,
		&r.HealthNoCare, &r.HealthCare, &r.Pension, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("scan bracket row", err)
	}
	return r.toBracket()
}
