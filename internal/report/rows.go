package report

import (
	"sort"

	"finanze/internal/core"
)

// Direction is the income/expense classification of a report row.
type Direction string

const (
	DirectionIncome  Direction = "income"
	DirectionExpense Direction = "expense"
)

// Label is the user-facing direction text.
func (d Direction) Label() string {
	if d == DirectionIncome {
		return "Entrata"
	}
	return "Uscita"
}

// Row is one formatted report line. The PDF and delimited-text renderers
// consume the identical row slice, so there is exactly one place where
// dates, directions and amounts get their display form.
type Row struct {
	DisplayDate string    `json:"date"`
	Direction   Direction `json:"direction"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
}

const displayDateLayout = "02/01/2006"

// BuildRows formats the filtered set into display rows, newest transaction
// first. Ties keep insertion order (stable sort) so repeated exports of an
// unchanged dataset are byte-identical. Dateless transactions sort last with
// an empty date cell.
func BuildRows(txs []core.Transaction, cats core.CategorySet) []Row {
	ordered := make([]core.Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.After(ordered[j].Date.Time)
	})

	rows := make([]Row, 0, len(ordered))
	for _, t := range ordered {
		row := Row{
			Direction:   DirectionExpense,
			Description: t.Description,
			Amount:      t.Amount.FormatEuro(),
		}
		if t.IsIncome() {
			row.Direction = DirectionIncome
		}
		if t.Date.Valid() {
			row.DisplayDate = t.Date.Format(displayDateLayout)
		}
		if cat, ok := t.Category.Resolve(cats); ok {
			row.Category = cat.Name
		}
		rows = append(rows, row)
	}
	return rows
}

// BuildSummary accumulates the filtered set into the report footer totals.
// The expense total is stored as a positive magnitude.
func BuildSummary(txs []core.Transaction) RangeSummary {
	return RangeSums(txs, noTime, noTime)
}
