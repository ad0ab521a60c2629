package query

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"social-insurance/core/bracket"
	"social-insurance/db"
	apperrors "social-insurance/internal/errors"
)

// stubStore serves a single bracket or a canned error
type stubStore struct {
	bracket *bracket.PremiumBracket
	err     error
	lookups int
}

func (s *stubStore) LookupByAmount(ctx context.Context, amount int) (*bracket.PremiumBracket, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	if s.bracket != nil && s.bracket.Contains(amount) {
		return s.bracket, nil
	}
	return nil, db.ErrNotFound
}

func (s *stubStore) FindByGrade(ctx context.Context, grade string) (*bracket.PremiumBracket, error) {
	return nil, db.ErrNotFound
}

func (s *stubStore) UpsertByGrade(ctx context.Context, b *bracket.PremiumBracket) (*bracket.PremiumBracket, error) {
	return b, nil
}

func (s *stubStore) DeleteByGrade(ctx context.Context, grade string) error { return nil }

func (s *stubStore) FindByStdRemRange(ctx context.Context, minStdRem, maxStdRem int) ([]bracket.PremiumBracket, error) {
	return nil, nil
}

func (s *stubStore) FindWithPositivePension(ctx context.Context) ([]bracket.PremiumBracket, error) {
	return nil, nil
}

func (s *stubStore) ListAll(ctx context.Context) ([]bracket.PremiumBracket, error) { return nil, nil }
func (s *stubStore) Ping(ctx context.Context) error                                { return nil }
func (s *stubStore) Close()                                                        {}

func testBracket(t *testing.T) *bracket.PremiumBracket {
	t.Helper()
	return &bracket.PremiumBracket{
		Grade:        "32",
		StdRem:       650000,
		MinAmount:    635000,
		MaxAmount:    665000,
		HealthNoCare: decimal.RequireFromString("49200.00"),
		HealthCare:   decimal.RequireFromString("58200.00"),
		Pension:      decimal.RequireFromString("59475.00"),
	}
}

func agePtr(v int) *int { return &v }

func TestQuerySuccess(t *testing.T) {
	store := &stubStore{bracket: testBracket(t)}
	svc := NewService(store)

	res, err := svc.SocialInsuranceQuery(context.Background(), 650000, agePtr(40))
	if err != nil {
		t.Fatalf("SocialInsuranceQuery: %v", err)
	}
	if got := res.EmployeeCost.CareCost.StringFixed(2); got != "4500.00" {
		t.Errorf("careCost = %s, want 4500.00", got)
	}
	if store.lookups != 1 {
		t.Errorf("performed %d lookups, want exactly 1", store.lookups)
	}
}

func TestQueryNegativeSalary(t *testing.T) {
	svc := NewService(&stubStore{bracket: testBracket(t)})

	_, err := svc.SocialInsuranceQuery(context.Background(), -1, agePtr(30))
	if !apperrors.IsKind(err, apperrors.KindBadInput) {
		t.Errorf("kind = %s, want %s", apperrors.KindOf(err), apperrors.KindBadInput)
	}
}

func TestQueryNegativeAge(t *testing.T) {
	store := &stubStore{bracket: testBracket(t)}
	svc := NewService(store)

	_, err := svc.SocialInsuranceQuery(context.Background(), 650000, agePtr(-3))
	if !apperrors.IsKind(err, apperrors.KindInvalidAge) {
		t.Errorf("kind = %s, want %s", apperrors.KindOf(err), apperrors.KindInvalidAge)
	}
	if store.lookups != 0 {
		t.Errorf("validation must fail before the lookup, saw %d lookups", store.lookups)
	}
}

func TestQueryBracketMissing(t *testing.T) {
	svc := NewService(&stubStore{bracket: testBracket(t)})

	_, err := svc.SocialInsuranceQuery(context.Background(), 1, agePtr(30))
	if !apperrors.IsKind(err, apperrors.KindBracketMissing) {
		t.Fatalf("kind = %s, want %s", apperrors.KindOf(err), apperrors.KindBracketMissing)
	}
	if msg := apperrors.MessageOf(err); msg == "" {
		t.Error("expected a message referencing the missing salary")
	}
}

func TestQueryStorageFailurePassthrough(t *testing.T) {
	svc := NewService(&stubStore{err: apperrors.Storage("backend down", nil)})

	_, err := svc.SocialInsuranceQuery(context.Background(), 650000, agePtr(30))
	if !apperrors.IsKind(err, apperrors.KindStorage) {
		t.Errorf("kind = %s, want %s", apperrors.KindOf(err), apperrors.KindStorage)
	}
}
