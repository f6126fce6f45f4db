package report

import (
	"time"

	"finanze/internal/core"
)

// Query narrows the transaction set for the reports screen and every
// exporter. Zero date bounds mean unbounded; an empty CategoryIDs set means
// all categories.
type Query struct {
	From        time.Time
	To          time.Time
	CategoryIDs []string
}

// DateBound reports whether the query restricts by date at all.
func (q Query) DateBound() bool {
	return !q.From.IsZero() || !q.To.IsZero()
}

// categoryBound reports whether a category filter is active.
func (q Query) categoryBound() bool {
	return len(q.CategoryIDs) > 0
}

// Filter applies the query's date-range and category-set predicates.
//
// Date bounds are inclusive, the upper bound end-of-day inclusive. With any
// bound set, transactions without a parseable date are excluded. With a
// non-empty category set, a transaction whose reference does not resolve is
// excluded: it cannot match a fixed id set. Output keeps input order; any
// display ordering is the exporter's job.
func Filter(txs []core.Transaction, cats core.CategorySet, q Query) []core.Transaction {
	wanted := make(map[string]struct{}, len(q.CategoryIDs))
	for _, id := range q.CategoryIDs {
		wanted[id] = struct{}{}
	}

	var to time.Time
	if !q.To.IsZero() {
		to = endOfDay(q.To)
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if q.DateBound() {
			if !t.Date.Valid() {
				continue
			}
			if !q.From.IsZero() && t.Date.Before(q.From) {
				continue
			}
			if !to.IsZero() && t.Date.After(to) {
				continue
			}
		}
		if q.categoryBound() {
			cat, ok := t.Category.Resolve(cats)
			if !ok {
				continue
			}
			if _, member := wanted[cat.ID]; !member {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}
