package models

import "fmt"

// FundFilter selects ledger entries for listing and aggregation.
// The timestamp range is inclusive on both bounds. Source, when non-empty,
// is an exact match. Classes, when non-empty, is an OR over the given set.
// A filter is a pure value; it is never persisted.
type FundFilter struct {
	From    int64
	To      int64
	Source  string
	Classes []string
}

// Validate rejects filters that cannot select anything meaningful.
func (f FundFilter) Validate() error {
	if f.From > f.To {
		return fmt.Errorf("invalid time range: from %d > to %d", f.From, f.To)
	}
	return nil
}
