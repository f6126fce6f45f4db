// Package report is the aggregation and reporting engine: pure functions
// that turn an in-memory snapshot of transactions, categories and budgets
// into time-bucketed series, category breakdowns, budget consumption views
// and exportable documents.
//
// Every time-windowed function takes the reference time as an explicit
// parameter; nothing in this package reads the wall clock. All accumulation
// happens in integer cents, display rounding only at formatting time.
package report

import (
	"time"

	"finanze/internal/core"
)

// MonthlyBucket aggregates signed amounts over one calendar month.
// Income and Expense both hold positive magnitudes.
type MonthlyBucket struct {
	Label   string     `json:"label"` // "MM/YY"
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Income  core.Money `json:"entrate"`
	Expense core.Money `json:"uscite"`
}

// RangeSummary holds the windowed totals. Expense is a positive magnitude;
// Net is income minus expense.
type RangeSummary struct {
	Income  core.Money `json:"entrate"`
	Expense core.Money `json:"uscite"`
	Net     core.Money `json:"saldo"`
}

const trailingMonths = 12

// noTime is the unbounded side of a window.
var noTime time.Time

// mustReferenceTime guards windowed computations against a missing reference
// time. That is a programmer error, not a data problem, and silently
// producing numbers relative to the zero time would be worse than a crash.
func mustReferenceTime(now time.Time) {
	if now.IsZero() {
		panic("report: reference time is required")
	}
}

func monthLabel(year int, month time.Month) string {
	yy := year % 100
	return pad2(int(month)) + "/" + pad2(yy)
}

func pad2(n int) string {
	const digits = "0123456789"
	if n < 0 {
		n = 0
	}
	n %= 100
	return string([]byte{digits[n/10], digits[n%10]})
}

// MonthlyBuckets partitions transactions into the trailing 12 calendar
// months ending at now's month and accumulates per-month income and expense
// magnitudes. Buckets come back oldest first. Transactions outside the
// window or with unparseable dates are skipped; they never abort bucketing.
func MonthlyBuckets(txs []core.Transaction, now time.Time) []MonthlyBucket {
	mustReferenceTime(now)

	type ym struct {
		year  int
		month time.Month
	}

	buckets := make([]MonthlyBucket, 0, trailingMonths)
	index := make(map[ym]int, trailingMonths)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := trailingMonths - 1; i >= 0; i-- {
		d := first.AddDate(0, -i, 0)
		index[ym{d.Year(), d.Month()}] = len(buckets)
		buckets = append(buckets, MonthlyBucket{
			Label: monthLabel(d.Year(), d.Month()),
			Year:  d.Year(),
			Month: d.Month(),
		})
	}

	for _, t := range txs {
		if !t.Date.Valid() {
			continue
		}
		i, ok := index[ym{t.Date.Year(), t.Date.Month()}]
		if !ok {
			continue
		}
		if t.IsIncome() {
			buckets[i].Income.Cents += t.Amount.Cents
		} else {
			buckets[i].Expense.Cents += t.Amount.Abs()
		}
	}

	return buckets
}

// RangeSums accumulates income and expense magnitudes over an inclusive
// date window. A zero bound means unbounded on that side; with both bounds
// zero the sum covers the whole set, dateless transactions included. As soon
// as one bound is set the query is date-bound and transactions without a
// usable date are excluded.
func RangeSums(txs []core.Transaction, from, to time.Time) RangeSummary {
	dateBound := !from.IsZero() || !to.IsZero()

	var sum RangeSummary
	for _, t := range txs {
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
		if t.IsIncome() {
			sum.Income.Cents += t.Amount.Cents
		} else {
			sum.Expense.Cents += t.Amount.Abs()
		}
	}
	sum.Net.Cents = sum.Income.Cents - sum.Expense.Cents
	return sum
}

// NetBalance is the all-time running sum of raw signed amounts. It is never
// windowed, so transactions with missing dates still count.
func NetBalance(txs []core.Transaction) core.Money {
	var net core.Money
	for _, t := range txs {
		net.Cents += t.Amount.Cents
	}
	return net
}

// endOfDay pushes an inclusive upper bound to the last instant of its
// calendar day, so a transaction dated exactly on the bound is kept.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
