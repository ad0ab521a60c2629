package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"social-insurance/core/bracket"
	apperrors "social-insurance/internal/errors"
	"social-insurance/internal/logging"
)

// sqliteSchema bootstraps the table on open. The decimal columns are stored
// as text so the statutory amounts stay exact.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS premium_bracket (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	grade          TEXT    NOT NULL UNIQUE,
	std_rem        INTEGER NOT NULL UNIQUE,
	min_amount     INTEGER NOT NULL,
	max_amount     INTEGER NOT NULL,
	health_no_care TEXT,
	health_care    TEXT,
	pension        TEXT,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_premium_bracket_min_amount ON premium_bracket (min_amount);
`

// SQLiteStore is the embedded bracket store for local and development use
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (and if needed initializes) an embedded store
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, apperrors.Storage("open sqlite database", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, apperrors.Storage("initialize sqlite schema", err)
	}
	return &SQLiteStore{db: conn}, nil
}

// LookupByAmount returns the row whose interval contains the amount. As in
// the Postgres store, an overlap breach is logged and the smallest
// min_amount row wins.
func (s *SQLiteStore) LookupByAmount(ctx context.Context, amount int) (*bracket.PremiumBracket, error) {
	const q = `SELECT ` + bracketColumns + `
		FROM premium_bracket
		WHERE min_amount <= ? AND max_amount > ?
		ORDER BY min_amount
		LIMIT 2`

	var rows []bracketRow
	if err := s.db.SelectContext(ctx, &rows, q, amount, amount); err != nil {
		return nil, apperrors.Storage("bracket lookup query", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	if len(rows) > 1 {
		logging.Error("bracket table invariant breach: overlapping intervals",
			zap.Int("amount", amount),
			zap.String("grade", rows[0].Grade),
			zap.String("overlapping_grade", rows[1].Grade))
	}
	return rows[0].toBracket()
}

// FindByGrade returns the row with the given grade
func (s *SQLiteStore) FindByGrade(ctx context.Context, grade string) (*bracket.PremiumBracket, error) {
	const q = `SELECT ` + bracketColumns + ` FROM premium_bracket WHERE grade = ?`

	var r bracketRow
	err := s.db.GetContext(ctx, &r, q, grade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Storage("bracket query", err)
	}
	return r.toBracket()
}

// UpsertByGrade inserts or replaces the row with the same grade after
// validating the table state it would produce.
func (s *SQLiteStore) UpsertByGrade(ctx context.Context, b *bracket.PremiumBracket) (*bracket.PremiumBracket, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.Storage("begin upsert transaction", err)
	}
	defer tx.Rollback()

	var rows []bracketRow
	if err := tx.SelectContext(ctx, &rows, `SELECT `+bracketColumns+` FROM premium_bracket ORDER BY min_amount`); err != nil {
		return nil, apperrors.Storage("load bracket table", err)
	}
	existing, err := rowsToBrackets(rows)
	if err != nil {
		return nil, err
	}
	if err := validateUpsert(existing, b); err != nil {
		return nil, err
	}

	const q = `INSERT INTO premium_bracket
			(grade, std_rem, min_amount, max_amount, health_no_care, health_care, pension, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(grade) DO UPDATE SET
			std_rem        = excluded.std_rem,
			min_amount     = excluded.min_amount,
			max_amount     = excluded.max_amount,
			health_no_care = excluded.health_no_care,
			health_care    = excluded.health_care,
			pension        = excluded.pension,
			updated_at     = excluded.updated_at`

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, q,
		b.Grade, b.StdRem, b.MinAmount, b.MaxAmount,
		b.HealthNoCare.String(), b.HealthCare.String(), b.Pension.String(),
		now, now); err != nil {
		return nil, apperrors.Storage("upsert bracket", err)
	}

	var saved bracketRow
	if err := tx.GetContext(ctx, &saved, `SELECT `+bracketColumns+` FROM premium_bracket WHERE grade = ?`, b.Grade); err != nil {
		return nil, apperrors.Storage("reload upserted bracket", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Storage("commit upsert", err)
	}
	return saved.toBracket()
}

// DeleteByGrade removes the row with the given grade
func (s *SQLiteStore) DeleteByGrade(ctx context.Context, grade string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM premium_bracket WHERE grade = ?`, grade)
	if err != nil {
		return apperrors.Storage("delete bracket", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByStdRemRange returns rows inside the std_rem range ordered by std_rem
func (s *SQLiteStore) FindByStdRemRange(ctx context.Context, minStdRem, maxStdRem int) ([]bracket.PremiumBracket, error) {
	const q = `SELECT ` + bracketColumns + `
		FROM premium_bracket
		WHERE std_rem >= ? AND std_rem <= ?
		ORDER BY std_rem`

	return s.selectBrackets(ctx, q, minStdRem, maxStdRem)
}

// FindWithPositivePension returns rows with pension > 0 ordered by std_rem
func (s *SQLiteStore) FindWithPositivePension(ctx context.Context) ([]bracket.PremiumBracket, error) {
	const q = `SELECT ` + bracketColumns + `
		FROM premium_bracket
		WHERE CAST(pension AS REAL) > 0
		ORDER BY std_rem`

	return s.selectBrackets(ctx, q)
}

// ListAll returns the whole table ordered by std_rem
func (s *SQLiteStore) ListAll(ctx context.Context) ([]bracket.PremiumBracket, error) {
	return s.selectBrackets(ctx, `SELECT `+bracketColumns+` FROM premium_bracket ORDER BY std_rem`)
}

// Ping verifies the database file is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.Storage("storage backend unreachable", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		logging.Warn("close sqlite database", zap.Error(err))
	}
}

func (s *SQLiteStore) selectBrackets(ctx context.Context, q string, args ...any) ([]bracket.PremiumBracket, error) {
	var rows []bracketRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, apperrors.Storage("bracket query", err)
	}
	return rowsToBrackets(rows)
}
