package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"social-insurance/core/bracket"
	apperrors "social-insurance/internal/errors"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func seedBracket(grade string, stdRem, minAmount, maxAmount int, healthNoCare, healthCare, pension string) *bracket.PremiumBracket {
	return &bracket.PremiumBracket{
		Grade:        grade,
		StdRem:       stdRem,
		MinAmount:    minAmount,
		MaxAmount:    maxAmount,
		HealthNoCare: decimal.RequireFromString(healthNoCare),
		HealthCare:   decimal.RequireFromString(healthCare),
		Pension:      decimal.RequireFromString(pension),
	}
}

func seedSchedule(t *testing.T, store *SQLiteStore) {
	t.Helper()
	ctx := context.Background()
	for _, b := range []*bracket.PremiumBracket{
		seedBracket("1", 58000, 0, 63000, "4969.40", "5904.40", "8052.00"),
		seedBracket("2", 68000, 63000, 73000, "5826.20", "6922.40", "9440.00"),
		seedBracket("32", 650000, 635000, 665000, "49200.00", "58200.00", "59475.00"),
	} {
		if _, err := store.UpsertByGrade(ctx, b); err != nil {
			t.Fatalf("seed grade %s: %v", b.Grade, err)
		}
	}
}

func TestSQLiteLookupByAmount(t *testing.T) {
	store := openTestStore(t)
	seedSchedule(t, store)
	ctx := context.Background()

	b, err := store.LookupByAmount(ctx, 650000)
	if err != nil {
		t.Fatalf("LookupByAmount: %v", err)
	}
	if b.Grade != "32" {
		t.Errorf("grade = %s, want 32", b.Grade)
	}
	if b.HealthCare.StringFixed(2) != "58200.00" {
		t.Errorf("health_care = %s, want 58200.00 (decimal must round-trip exactly)", b.HealthCare)
	}

	// half-open boundaries
	if b, err := store.LookupByAmount(ctx, 63000); err != nil || b.Grade != "2" {
		t.Errorf("LookupByAmount(63000) = %v, %v; want grade 2", b, err)
	}
	if _, err := store.LookupByAmount(ctx, 665000); !errors.Is(err, ErrNotFound) {
		t.Errorf("LookupByAmount(665000) err = %v, want ErrNotFound", err)
	}
	if _, err := store.LookupByAmount(ctx, 100000); !errors.Is(err, ErrNotFound) {
		t.Errorf("lookup in a gap must miss, got err = %v", err)
	}
}

func TestSQLiteUpsertReplacesByGrade(t *testing.T) {
	store := openTestStore(t)
	seedSchedule(t, store)
	ctx := context.Background()

	created, err := store.FindByGrade(ctx, "2")
	if err != nil {
		t.Fatalf("FindByGrade: %v", err)
	}

	updated := seedBracket("2", 68000, 63000, 73000, "5900.00", "7000.00", "9440.00")
	saved, err := store.UpsertByGrade(ctx, updated)
	if err != nil {
		t.Fatalf("UpsertByGrade: %v", err)
	}
	if saved.HealthNoCare.StringFixed(2) != "5900.00" {
		t.Errorf("health_no_care = %s, want 5900.00", saved.HealthNoCare)
	}
	if saved.ID != created.ID {
		t.Errorf("upsert must replace in place, id changed %d -> %d", created.ID, saved.ID)
	}
	if saved.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updated_at was not bumped")
	}

	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("table has %d rows after upsert, want 3", len(all))
	}
}

func TestSQLiteUpsertRejectsInvariantViolation(t *testing.T) {
	store := openTestStore(t)
	seedSchedule(t, store)
	ctx := context.Background()

	cases := []struct {
		name string
		b    *bracket.PremiumBracket
	}{
		{"overlap", seedBracket("33", 680000, 660000, 695000, "50000.00", "59000.00", "59475.00")},
		{"duplicate std_rem", seedBracket("33", 650000, 665000, 695000, "50000.00", "59000.00", "59475.00")},
		{"care below no-care", seedBracket("33", 680000, 665000, 695000, "50000.00", "49999.99", "59475.00")},
		{"inverted interval", seedBracket("33", 680000, 695000, 665000, "50000.00", "59000.00", "59475.00")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.UpsertByGrade(ctx, tc.b)
			if err == nil {
				t.Fatal("expected upsert rejection")
			}
			if !apperrors.IsKind(err, apperrors.KindBadInput) {
				t.Errorf("kind = %s, want %s", apperrors.KindOf(err), apperrors.KindBadInput)
			}
		})
	}

	// the failed upserts must not have written anything
	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("table has %d rows, want 3", len(all))
	}
}

func TestSQLiteDeleteByGrade(t *testing.T) {
	store := openTestStore(t)
	seedSchedule(t, store)
	ctx := context.Background()

	if err := store.DeleteByGrade(ctx, "2"); err != nil {
		t.Fatalf("DeleteByGrade: %v", err)
	}
	if _, err := store.FindByGrade(ctx, "2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted grade still found, err = %v", err)
	}
	if err := store.DeleteByGrade(ctx, "2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteFindByStdRemRange(t *testing.T) {
	store := openTestStore(t)
	seedSchedule(t, store)

	rows, err := store.FindByStdRemRange(context.Background(), 58000, 68000)
	if err != nil {
		t.Fatalf("FindByStdRemRange: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].StdRem > rows[1].StdRem {
		t.Error("rows not ordered by std_rem")
	}
}

func TestSQLiteFindWithPositivePension(t *testing.T) {
	store := openTestStore(t)
	seedSchedule(t, store)
	ctx := context.Background()

	noPension := seedBracket("40", 700000, 665000, 730000, "52000.00", "61000.00", "0.00")
	if _, err := store.UpsertByGrade(ctx, noPension); err != nil {
		t.Fatalf("seed pension-free bracket: %v", err)
	}

	rows, err := store.FindWithPositivePension(ctx)
	if err != nil {
		t.Fatalf("FindWithPositivePension: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, b := range rows {
		if !b.Pension.IsPositive() {
			t.Errorf("grade %s has non-positive pension %s", b.Grade, b.Pension)
		}
	}
}

func TestSQLiteNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.LookupByAmount(context.Background(), 650000); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty table lookup err = %v, want ErrNotFound", err)
	}
	if _, err := store.FindByGrade(context.Background(), "32"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindByGrade err = %v, want ErrNotFound", err)
	}
}
