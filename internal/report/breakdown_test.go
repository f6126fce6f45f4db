package report

import (
	"math"
	"reflect"
	"testing"
	"time"

	"finanze/internal/core"
)

func testCategories() core.CategorySet {
	return core.NewCategorySet([]core.Category{
		{ID: "food", Name: "Cibo", Icon: "🍕", Color: "#FF8042"},
		{ID: "rent", Name: "Affitto", Icon: "🏠", Color: "#0088FE"},
		{ID: "fun", Name: "Intrattenimento", Icon: "🎮", Color: "#AA66CC"},
	})
}

func TestExpenseBreakdownEqualSharesSplitFifty(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "2024-03-01", -3000, core.CategoryID("food")),
		tx("b", "2024-03-02", -3000, core.CategoryID("rent")),
	}
	bd := ExpenseBreakdown(txs, testCategories(), time.Time{}, time.Time{})

	if bd.Total.Cents != 6000 {
		t.Fatalf("expected total 6000, got %d", bd.Total.Cents)
	}
	if len(bd.Shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(bd.Shares))
	}
	for _, s := range bd.Shares {
		if s.Percentage != 50.0 {
			t.Fatalf("expected 50.0%%, got %v for %s", s.Percentage, s.CategoryID)
		}
	}
}

func TestExpenseBreakdownPercentagesApproximateHundred(t *testing.T) {
	// Three groups with values that do not divide evenly.
	txs := []core.Transaction{
		tx("a", "2024-03-01", -3333, core.CategoryID("food")),
		tx("b", "2024-03-02", -3333, core.CategoryID("rent")),
		tx("c", "2024-03-03", -3334, core.CategoryID("fun")),
	}
	bd := ExpenseBreakdown(txs, testCategories(), time.Time{}, time.Time{})

	var sum float64
	for _, s := range bd.Shares {
		sum += s.Percentage
	}
	tolerance := 0.1 * float64(len(bd.Shares))
	if math.Abs(sum-100) > tolerance {
		t.Fatalf("percentage sum %v outside tolerance %v", sum, tolerance)
	}
}

func TestExpenseBreakdownSentinelGroup(t *testing.T) {
	txs := []core.Transaction{
		tx("dangling", "2024-03-01", -1000, core.CategoryID("deleted-cat")),
		tx("absent", "2024-03-02", -500, core.CategoryRef{}),
	}
	bd := ExpenseBreakdown(txs, testCategories(), time.Time{}, time.Time{})

	if len(bd.Shares) != 1 {
		t.Fatalf("expected a single sentinel group, got %d", len(bd.Shares))
	}
	s := bd.Shares[0]
	if s.CategoryID != core.OtherCategoryID || s.Name != core.OtherCategoryName {
		t.Fatalf("expected sentinel Altro group, got %+v", s)
	}
	if s.Icon != core.DefaultCategoryIcon || s.Color != core.NeutralCategoryColor {
		t.Fatalf("sentinel must carry default glyph and color, got %+v", s)
	}
	if s.Value.Cents != 1500 {
		t.Fatalf("expected pooled 1500 cents, got %d", s.Value.Cents)
	}
}

func TestExpenseBreakdownOrdering(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "2024-03-01", -1000, core.CategoryID("rent")),
		tx("b", "2024-03-02", -5000, core.CategoryID("food")),
		tx("c", "2024-03-03", -1000, core.CategoryID("fun")),
	}
	bd := ExpenseBreakdown(txs, testCategories(), time.Time{}, time.Time{})

	got := make([]string, 0, len(bd.Shares))
	for _, s := range bd.Shares {
		got = append(got, s.Name)
	}
	// Largest first; the two 1000-cent groups tie-break by name ascending.
	want := []string{"Cibo", "Affitto", "Intrattenimento"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestExpenseBreakdownIgnoresIncomeAndWindow(t *testing.T) {
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("income", "2024-03-10", 100000, core.CategoryID("food")),
		tx("inside", "2024-03-10", -1000, core.CategoryID("food")),
		tx("outside", "2024-04-02", -9000, core.CategoryID("food")),
		tx("dateless", "", -9000, core.CategoryID("food")),
	}
	bd := ExpenseBreakdown(txs, testCategories(), from, to)
	if bd.Total.Cents != 1000 {
		t.Fatalf("expected only the windowed expense, got total %d", bd.Total.Cents)
	}
}

func TestExpenseBreakdownEmptyInput(t *testing.T) {
	bd := ExpenseBreakdown(nil, testCategories(), time.Time{}, time.Time{})
	if bd.Total.Cents != 0 || len(bd.Shares) != 0 {
		t.Fatalf("empty input must be a valid empty breakdown, got %+v", bd)
	}
}

func TestExpenseBreakdownIdempotent(t *testing.T) {
	txs := []core.Transaction{
		tx("a", "2024-03-01", -3000, core.CategoryID("food")),
		tx("b", "2024-03-02", -1000, core.CategoryID("rent")),
	}
	a := ExpenseBreakdown(txs, testCategories(), time.Time{}, time.Time{})
	b := ExpenseBreakdown(txs, testCategories(), time.Time{}, time.Time{})
	if !reflect.DeepEqual(a, b) {
		t.Fatal("repeated calls with the same snapshot must be identical")
	}
}
