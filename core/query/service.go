// Package query glues one social-insurance request together: validate,
// look up the bracket, run the calculator.
package query

import (
	"context"
	"errors"

	"social-insurance/core/calc"
	"social-insurance/db"
	apperrors "social-insurance/internal/errors"
)

// Service orchestrates the query path. It performs exactly one storage
// lookup per request and never caches results.
type Service struct {
	store db.BracketStore
}

// NewService creates a query service over a bracket store
func NewService(store db.BracketStore) *Service {
	return &Service{store: store}
}

// SocialInsuranceQuery computes the employee and employer contribution
// shares for a monthly salary and an optional age. A nil age counts as
// below the care-insurance threshold.
func (s *Service) SocialInsuranceQuery(ctx context.Context, monthlySalary int, age *int) (*calc.SocialInsuranceResult, error) {
	if monthlySalary < 0 {
		return nil, apperrors.BadInputf("monthlySalary must not be negative, got %d", monthlySalary)
	}
	if age != nil && *age < 0 {
		return nil, apperrors.InvalidAge(*age)
	}

	b, err := s.store.LookupByAmount(ctx, monthlySalary)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apperrors.BracketMissing(monthlySalary)
	}
	if err != nil {
		return nil, err
	}

	return calc.Calculate(b, age)
}
