package db

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"social-insurance/core/bracket"
	apperrors "social-insurance/internal/errors"
)

// bracketColumns is the select list shared by both backends
const bracketColumns = "id, grade, std_rem, min_amount, max_amount, health_no_care, health_care, pension, created_at, updated_at"

// bracketRow is the scan target for a premium_bracket row. The decimal
// columns are scanned as nullable strings so that a NULL in the table
// surfaces as MalformedBracket instead of a silent zero.
type bracketRow struct {
	ID           int64     `db:"id"`
	Grade        string    `db:"grade"`
	StdRem       int       `db:"std_rem"`
	MinAmount    int       `db:"min_amount"`
	MaxAmount    int       `db:"max_amount"`
	HealthNoCare *string   `db:"health_no_care"`
	HealthCare   *string   `db:"health_care"`
	Pension      *string   `db:"pension"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *bracketRow) toBracket() (*bracket.PremiumBracket, error) {
	healthNoCare, err := parseDecimalColumn("health_no_care", r.Grade, r.HealthNoCare)
	if err != nil {
		return nil, err
	}
	healthCare, err := parseDecimalColumn("health_care", r.Grade, r.HealthCare)
	if err != nil {
		return nil, err
	}
	pension, err := parseDecimalColumn("pension", r.Grade, r.Pension)
	if err != nil {
		return nil, err
	}

	return &bracket.PremiumBracket{
		ID:           r.ID,
		Grade:        r.Grade,
		StdRem:       r.StdRem,
		MinAmount:    r.MinAmount,
		MaxAmount:    r.MaxAmount,
		HealthNoCare: healthNoCare,
		HealthCare:   healthCare,
		Pension:      pension,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func parseDecimalColumn(column, grade string, value *string) (decimal.Decimal, error) {
	if value == nil {
		return decimal.Zero, apperrors.MalformedBracket(fmt.Sprintf("grade %s: %s is NULL", grade, column))
	}
	d, err := decimal.NewFromString(*value)
	if err != nil {
		return decimal.Zero, apperrors.MalformedBracket(fmt.Sprintf("grade %s: %s is not a decimal: %v", grade, column, err))
	}
	return d, nil
}

func rowsToBrackets(rows []bracketRow) ([]bracket.PremiumBracket, error) {
	out := make([]bracket.PremiumBracket, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toBracket()
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

// validateUpsert checks the row and the table state it would produce
func validateUpsert(existing []bracket.PremiumBracket, b *bracket.PremiumBracket) error {
	if err := b.Validate(); err != nil {
		return apperrors.BadInputf("invalid bracket: %v", err)
	}

	proposed := make([]bracket.PremiumBracket, 0, len(existing)+1)
	for _, row := range existing {
		if row.Grade == b.Grade {
			continue
		}
		proposed = append(proposed, row)
	}
	proposed = append(proposed, *b)

	if err := bracket.Validate(proposed); err != nil {
		return apperrors.BadInputf("upsert of grade %s rejected: %v", b.Grade, err)
	}
	return nil
}
