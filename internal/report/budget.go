package report

import (
	"math"
	"time"

	"finanze/internal/core"
)

// Tier classifies budget consumption for progress-bar coloring.
type Tier string

const (
	TierUnder Tier = "under" // ratio < 0.8
	TierNear  Tier = "near"  // 0.8 <= ratio < 1
	TierOver  Tier = "over"  // ratio >= 1
)

// BudgetStatus joins one budget against the current month's spending.
type BudgetStatus struct {
	BudgetID     string     `json:"_id"`
	CategoryID   string     `json:"categoryId"`
	CategoryName string     `json:"categoryName"`
	CategoryIcon string     `json:"categoryIcon"`
	Limit        core.Money `json:"limit"`
	Spent        core.Money `json:"spent"`
	// Ratio is clamped to 1 for progress-bar rendering; RatioPct is the
	// unclamped integer percentage shown even past 100%.
	Ratio    float64 `json:"ratio"`
	RatioPct int     `json:"ratioPct"`
	Tier     Tier    `json:"tier"`
}

// EvaluateBudgets computes per-budget consumption for the calendar month
// containing now. Spending per category is the sum of expense magnitudes in
// the first-to-last day of that month. A budget whose category no longer
// resolves is still listed under a sentinel name; budgets are never silently
// hidden. Non-positive limits yield a zero ratio.
func EvaluateBudgets(budgets []core.Budget, txs []core.Transaction, cats core.CategorySet, now time.Time) []BudgetStatus {
	mustReferenceTime(now)

	spent := monthlySpendByCategory(txs, cats, now)

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		catID := b.Category.ResolvedID(cats)

		st := BudgetStatus{
			BudgetID:     b.ID,
			CategoryID:   catID,
			CategoryName: core.UnknownCategoryName,
			CategoryIcon: core.DefaultCategoryIcon,
			Limit:        b.Limit,
			Spent:        core.Money{Cents: spent[catID]},
			Tier:         TierUnder,
		}
		if cat, ok := b.Category.Resolve(cats); ok {
			cat = cat.WithDefaults()
			st.CategoryName = cat.Name
			st.CategoryIcon = cat.Icon
		}

		if b.Actionable() {
			limit := b.Limit.Cents
			s := st.Spent.Cents
			st.Ratio = math.Min(1, float64(s)/float64(limit))
			st.RatioPct = int(math.Round(float64(s) / float64(limit) * 100))
			st.Tier = classify(s, limit)
		}

		statuses = append(statuses, st)
	}
	return statuses
}

// classify derives the tier from integer cents so the 0.8 and 1.0 boundaries
// are exact: spent == limit is over, spent == 0.8*limit is near.
func classify(spentCents, limitCents int64) Tier {
	switch {
	case spentCents >= limitCents:
		return TierOver
	case spentCents*10 >= limitCents*8:
		return TierNear
	default:
		return TierUnder
	}
}

// monthlySpendByCategory sums expense magnitudes per resolved category id
// over the calendar month containing now. Transactions without a category
// reference are skipped; they can never match a budget.
func monthlySpendByCategory(txs []core.Transaction, cats core.CategorySet, now time.Time) map[string]int64 {
	year, month := now.Year(), now.Month()

	spend := make(map[string]int64)
	for _, t := range txs {
		if t.IsIncome() || !t.Date.SameMonth(year, month) {
			continue
		}
		catID := t.Category.ResolvedID(cats)
		if catID == "" {
			continue
		}
		spend[catID] += t.Amount.Abs()
	}
	return spend
}
