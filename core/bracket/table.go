package bracket

import (
	"fmt"
	"sort"
)

// Table is an immutable, ordered view of the full schedule. Lookups run in
// O(log N) over the rows sorted by MinAmount.
type Table struct {
	rows     []PremiumBracket
	breaches []string
}

// Validate checks the table-wide invariants over a set of rows: every row
// valid on its own, intervals pairwise non-overlapping, grades unique, and
// std_rem unique and strictly monotonic with min_amount. Gaps between
// intervals are legal; lookups in a gap simply miss.
func Validate(rows []PremiumBracket) error {
	sorted := sortedCopy(rows)
	seenGrades := make(map[string]struct{}, len(sorted))

	for i := range sorted {
		b := &sorted[i]
		if err := b.Validate(); err != nil {
			return err
		}
		if _, dup := seenGrades[b.Grade]; dup {
			return fmt.Errorf("duplicate grade %s", b.Grade)
		}
		seenGrades[b.Grade] = struct{}{}

		if i == 0 {
			continue
		}
		prev := &sorted[i-1]
		if b.MinAmount < prev.MaxAmount {
			return fmt.Errorf("grades %s and %s have overlapping intervals", prev.Grade, b.Grade)
		}
		if b.StdRem <= prev.StdRem {
			return fmt.Errorf("std_rem must increase with min_amount: grade %s has %d after grade %s with %d",
				b.Grade, b.StdRem, prev.Grade, prev.StdRem)
		}
	}
	return nil
}

// New builds a table, rejecting any invariant violation
func New(rows []PremiumBracket) (*Table, error) {
	if err := Validate(rows); err != nil {
		return nil, err
	}
	return &Table{rows: sortedCopy(rows)}, nil
}

// NewLenient builds a table from rows that may violate the table-wide
// invariants. Lookups stay deterministic (smallest min_amount wins) and the
// violations are reported through Breaches so the caller can surface them.
func NewLenient(rows []PremiumBracket) *Table {
	t := &Table{rows: sortedCopy(rows)}
	if err := Validate(rows); err != nil {
		t.breaches = append(t.breaches, err.Error())
	}
	return t
}

// LookupByAmount returns the row whose interval contains the amount. On an
// inconsistent table the row with the smallest min_amount among candidates
// is returned, so an invariant breach never produces a non-deterministic
// answer.
func (t *Table) LookupByAmount(amount int) (*PremiumBracket, bool) {
	if len(t.breaches) > 0 {
		// Invariants are broken, binary search is no longer sound.
		for i := range t.rows {
			if t.rows[i].Contains(amount) {
				b := t.rows[i]
				return &b, true
			}
		}
		return nil, false
	}

	// First row with MinAmount > amount; the only candidate is its
	// predecessor.
	i := sort.Search(len(t.rows), func(i int) bool {
		return t.rows[i].MinAmount > amount
	})
	if i == 0 {
		return nil, false
	}
	if b := t.rows[i-1]; b.Contains(amount) {
		return &b, true
	}
	return nil, false
}

// Rows returns the rows sorted by min_amount
func (t *Table) Rows() []PremiumBracket {
	out := make([]PremiumBracket, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Breaches reports the invariant violations found when the table was built
func (t *Table) Breaches() []string {
	return t.breaches
}

func sortedCopy(rows []PremiumBracket) []PremiumBracket {
	sorted := make([]PremiumBracket, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinAmount < sorted[j].MinAmount
	})
	return sorted
}
