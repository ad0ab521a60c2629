// Package calc implements the statutory contribution split.
//
// The computation is a pure function of a bracket row and an age: the
// health, care, and pension totals are each divided 50/50 between employee
// and employer, every half rounded half-up to 2 decimal places on its own.
package calc

import (
	"github.com/shopspring/decimal"

	"social-insurance/core/bracket"
	apperrors "social-insurance/internal/errors"
)

// CareInsuranceAge is the age from which long-term care insurance applies
const CareInsuranceAge = 40

// contributionScale is the statutory rounding scale in decimal places
const contributionScale = 2

var half = decimal.RequireFromString("0.5")

// CostShare is one party's monthly share of the three components
type CostShare struct {
	HealthCostWithNoCare decimal.Decimal
	CareCost             decimal.Decimal
	Pension              decimal.Decimal
}

// SocialInsuranceResult carries the employee and employer shares
type SocialInsuranceResult struct {
	EmployeeCost CostShare
	EmployerCost CostShare
}

// Calculate derives the contribution split from a bracket row and an age.
// A nil age means unspecified and, like any age below CareInsuranceAge,
// yields a zero care amount. The two halves of each component are rounded
// independently; their sum may differ from the bracket total by up to 0.01
// per the statutory computation, and no truing-up is applied.
func Calculate(b *bracket.PremiumBracket, age *int) (*SocialInsuranceResult, error) {
	if age != nil && *age < 0 {
		return nil, apperrors.InvalidAge(*age)
	}
	if err := b.ValidateAmounts(); err != nil {
		return nil, apperrors.MalformedBracket(err.Error())
	}

	careCost := decimal.Zero
	if age != nil && *age >= CareInsuranceAge {
		careCost = b.HealthCare.Sub(b.HealthNoCare)
	}

	share := CostShare{
		HealthCostWithNoCare: halfOf(b.HealthNoCare),
		CareCost:             halfOf(careCost),
		Pension:              halfOf(b.Pension),
	}

	return &SocialInsuranceResult{
		EmployeeCost: share,
		EmployerCost: share,
	}, nil
}

// halfOf rounds x * 0.5 half-up at two decimal places. decimal.Round is
// round half away from zero, which matches half-up for the non-negative
// amounts handled here.
func halfOf(x decimal.Decimal) decimal.Decimal {
	return x.Mul(half).Round(contributionScale)
}
