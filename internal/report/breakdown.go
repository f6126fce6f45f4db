package report

import (
	"math"
	"sort"
	"time"

	"finanze/internal/core"
)

// CategoryShare is one slice of the expense pie: the absolute value spent in
// a category over the window and its share of the windowed total.
type CategoryShare struct {
	CategoryID string     `json:"_id"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon"`
	Color      string     `json:"color"`
	Value      core.Money `json:"value"`
	// Percentage is rounded to one decimal per group. Independent per-group
	// rounding means the shares do not sum to exactly 100; that matches the
	// origin system and is accepted.
	Percentage float64 `json:"percentage"`
}

// Breakdown is the category-grouped expense view for one window.
type Breakdown struct {
	Total  core.Money      `json:"total"`
	Shares []CategoryShare `json:"data"`
}

// ExpenseBreakdown groups expense transactions inside the inclusive window
// by resolved category. Unresolved references land in the sentinel "Altro"
// group instead of being dropped. Shares come back largest first; equal
// values order by category name ascending so the chart legend is stable.
func ExpenseBreakdown(txs []core.Transaction, cats core.CategorySet, from, to time.Time) Breakdown {
	groups := make(map[string]*CategoryShare)
	var total int64

	dateBound := !from.IsZero() || !to.IsZero()
	for _, t := range txs {
		if t.IsIncome() {
			continue
		}
		if dateBound {
			if !t.Date.Valid() {
				continue
			}
			if !from.IsZero() && t.Date.Before(from) {
				continue
			}
			if !to.IsZero() && t.Date.After(endOfDay(to)) {
				continue
			}
		}

		cat, ok := t.Category.Resolve(cats)
		if !ok {
			cat = core.OtherCategory()
		} else {
			cat = cat.WithDefaults()
		}

		g, exists := groups[cat.ID]
		if !exists {
			g = &CategoryShare{
				CategoryID: cat.ID,
				Name:       cat.Name,
				Icon:       cat.Icon,
				Color:      cat.Color,
			}
			groups[cat.ID] = g
		}
		g.Value.Cents += t.Amount.Abs()
		total += t.Amount.Abs()
	}

	shares := make([]CategoryShare, 0, len(groups))
	for _, g := range groups {
		if total > 0 {
			g.Percentage = round1(float64(g.Value.Cents) / float64(total) * 100)
		}
		shares = append(shares, *g)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Value.Cents != shares[j].Value.Cents {
			return shares[i].Value.Cents > shares[j].Value.Cents
		}
		return shares[i].Name < shares[j].Name
	})

	return Breakdown{Total: core.Money{Cents: total}, Shares: shares}
}

// round1 rounds half away from zero to one decimal.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
