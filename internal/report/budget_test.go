package report

import (
	"testing"
	"time"

	"finanze/internal/core"
)

func budget(id, catID string, limitCents int64) core.Budget {
	return core.Budget{
		ID:       id,
		Category: core.CategoryID(catID),
		Limit:    core.Money{Cents: limitCents},
		Period:   core.MonthlyPeriod,
	}
}

func TestEvaluateBudgetsScenario(t *testing.T) {
	txs := []core.Transaction{
		tx("t1", "2024-03-05", -5000, core.CategoryID("food")),
		tx("t2", "2024-03-20", 100000, core.CategoryID("salary")),
	}
	cats := core.NewCategorySet([]core.Category{
		{ID: "food", Name: "Cibo", Icon: "🍕"},
		{ID: "salary", Name: "Stipendio"},
	})
	now := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	statuses := EvaluateBudgets([]core.Budget{budget("b1", "food", 10000)}, txs, cats, now)
	if len(statuses) != 1 {
		t.Fatalf("expected 1 status, got %d", len(statuses))
	}
	st := statuses[0]
	if st.Spent.Cents != 5000 {
		t.Fatalf("expected spent 5000, got %d", st.Spent.Cents)
	}
	if st.Ratio != 0.5 || st.RatioPct != 50 {
		t.Fatalf("expected ratio 0.5 / 50%%, got %v / %d", st.Ratio, st.RatioPct)
	}
	if st.Tier != TierUnder {
		t.Fatalf("expected under, got %s", st.Tier)
	}
	if st.CategoryName != "Cibo" || st.CategoryIcon != "🍕" {
		t.Fatalf("expected resolved category display fields, got %+v", st)
	}
}

func TestEvaluateBudgetsTierBoundaries(t *testing.T) {
	cats := core.NewCategorySet([]core.Category{{ID: "food", Name: "Cibo"}})
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		spent int64
		tier  Tier
	}{
		{"just under near boundary", 7900, TierUnder}, // 0.79 × limit
		{"exact near boundary", 8000, TierNear},       // 0.8 × limit
		{"almost full", 9999, TierNear},
		{"spent equals limit", 10000, TierOver},
		{"past the limit", 15000, TierOver},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			txs := []core.Transaction{tx("t", "2024-03-10", -tc.spent, core.CategoryID("food"))}
			statuses := EvaluateBudgets([]core.Budget{budget("b", "food", 10000)}, txs, cats, now)
			if statuses[0].Tier != tc.tier {
				t.Fatalf("spent %d: expected %s, got %s", tc.spent, tc.tier, statuses[0].Tier)
			}
		})
	}
}

func TestEvaluateBudgetsUnclampedPct(t *testing.T) {
	cats := core.NewCategorySet([]core.Category{{ID: "food", Name: "Cibo"}})
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{tx("t", "2024-03-10", -15000, core.CategoryID("food"))}

	st := EvaluateBudgets([]core.Budget{budget("b", "food", 10000)}, txs, cats, now)[0]
	if st.Ratio != 1 {
		t.Fatalf("ratio must clamp to 1, got %v", st.Ratio)
	}
	if st.RatioPct != 150 {
		t.Fatalf("pct must stay unclamped, got %d", st.RatioPct)
	}
}

func TestEvaluateBudgetsNonPositiveLimit(t *testing.T) {
	cats := core.NewCategorySet([]core.Category{{ID: "food", Name: "Cibo"}})
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{tx("t", "2024-03-10", -5000, core.CategoryID("food"))}

	st := EvaluateBudgets([]core.Budget{budget("b", "food", 0)}, txs, cats, now)[0]
	if st.Ratio != 0 || st.RatioPct != 0 || st.Tier != TierUnder {
		t.Fatalf("non-positive limit must degrade to zero ratio, got %+v", st)
	}
}

func TestEvaluateBudgetsDanglingCategoryStillListed(t *testing.T) {
	cats := core.NewCategorySet(nil)
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	statuses := EvaluateBudgets([]core.Budget{budget("b", "deleted", 10000)}, nil, cats, now)
	if len(statuses) != 1 {
		t.Fatal("budgets are never silently hidden")
	}
	if statuses[0].CategoryName != core.UnknownCategoryName {
		t.Fatalf("expected sentinel name, got %q", statuses[0].CategoryName)
	}
}

func TestEvaluateBudgetsMonthWindow(t *testing.T) {
	cats := core.NewCategorySet([]core.Category{{ID: "food", Name: "Cibo"}})
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("first day", "2024-03-01", -1000, core.CategoryID("food")),
		tx("last day", "2024-03-31", -1000, core.CategoryID("food")),
		tx("previous month", "2024-02-29", -1000, core.CategoryID("food")),
		tx("dateless", "", -1000, core.CategoryID("food")),
	}

	st := EvaluateBudgets([]core.Budget{budget("b", "food", 10000)}, txs, cats, now)[0]
	if st.Spent.Cents != 2000 {
		t.Fatalf("expected first-to-last day of the current month only, got %d", st.Spent.Cents)
	}
}

func TestEvaluateBudgetsLegacyRefJoins(t *testing.T) {
	cats := core.NewCategorySet([]core.Category{{ID: "food", Name: "Cibo"}})
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("t1", "2024-03-10", -3000, core.LegacyCategoryRef("food")),
		tx("t2", "2024-03-11", -2000, core.EmbeddedCategory(core.Category{ID: "food", Name: "Cibo"})),
	}
	b := core.Budget{ID: "b", Category: core.LegacyCategoryRef("food"), Limit: core.Money{Cents: 10000}}

	st := EvaluateBudgets([]core.Budget{b}, txs, cats, now)[0]
	if st.Spent.Cents != 5000 {
		t.Fatalf("all reference shapes must join on the resolved id, got %d", st.Spent.Cents)
	}
}

func TestEvaluateBudgetsRequiresReferenceTime(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero reference time")
		}
	}()
	EvaluateBudgets(nil, nil, core.NewCategorySet(nil), time.Time{})
}
