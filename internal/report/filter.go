// Package report implements the P&L reporting engine: date-range
// filtering, per-head aggregation and CSV export.
package report

import "github.com/vansh-20/school-finance-app/internal/core"

// FilterRange returns the transactions whose date falls within
// [from, to], both boundaries inclusive. The end boundary is the start
// of the day after `to`, compared strictly, so the whole end day is
// kept. Transactions with a missing date are dropped silently.
// The input slice is never mutated.
func FilterRange(txs []core.Transaction, from, to core.Date) []core.Transaction {
	end := to.Next()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		if tx.Date.Before(from.Time) {
			continue
		}
		if !tx.Date.Before(end.Time) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// DateBounds returns the earliest and latest transaction dates, skipping
// undated transactions. ok is false when no dated transaction exists.
func DateBounds(txs []core.Transaction) (min, max core.Date, ok bool) {
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		if !ok {
			min, max = tx.Date, tx.Date
			ok = true
			continue
		}
		if tx.Date.Before(min.Time) {
			min = tx.Date
		}
		if tx.Date.After(max.Time) {
			max = tx.Date
		}
	}
	return min, max, ok
}
