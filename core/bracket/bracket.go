// Package bracket defines the premium bracket schedule and its range index.
//
// A bracket maps the half-open salary interval [MinAmount, MaxAmount) to the
// statutory monthly contribution totals for health insurance (with and
// without long-term care) and employees' pension.
package bracket

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PremiumBracket is one row of the contribution schedule
type PremiumBracket struct {
	ID           int64
	Grade        string
	StdRem       int
	MinAmount    int
	MaxAmount    int
	HealthNoCare decimal.Decimal
	HealthCare   decimal.Decimal
	Pension      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contains reports whether a monthly salary falls inside the bracket's
// half-open interval.
func (b *PremiumBracket) Contains(amount int) bool {
	return b.MinAmount <= amount && amount < b.MaxAmount
}

// Validate checks the row-level invariants
func (b *PremiumBracket) Validate() error {
	if b.Grade == "" {
		return fmt.Errorf("grade must not be empty")
	}
	if b.StdRem <= 0 {
		return fmt.Errorf("grade %s: std_rem must be positive, got %d", b.Grade, b.StdRem)
	}
	if b.MinAmount < 0 {
		return fmt.Errorf("grade %s: min_amount must not be negative, got %d", b.Grade, b.MinAmount)
	}
	if b.MinAmount >= b.MaxAmount {
		return fmt.Errorf("grade %s: min_amount %d must be below max_amount %d", b.Grade, b.MinAmount, b.MaxAmount)
	}
	if err := b.ValidateAmounts(); err != nil {
		return err
	}
	return nil
}

// ValidateAmounts checks only the contribution decimals. The calculator
// uses this to detect rows it must not compute from.
func (b *PremiumBracket) ValidateAmounts() error {
	if b.HealthNoCare.IsNegative() {
		return fmt.Errorf("grade %s: health_no_care must not be negative, got %s", b.Grade, b.HealthNoCare)
	}
	if b.HealthCare.IsNegative() {
		return fmt.Errorf("grade %s: health_care must not be negative, got %s", b.Grade, b.HealthCare)
	}
	if b.Pension.IsNegative() {
		return fmt.Errorf("grade %s: pension must not be negative, got %s", b.Grade, b.Pension)
	}
	if b.HealthCare.LessThan(b.HealthNoCare) {
		return fmt.Errorf("grade %s: health_care %s is below health_no_care %s", b.Grade, b.HealthCare, b.HealthNoCare)
	}
	return nil
}
