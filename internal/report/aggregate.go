package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/vansh-20/school-finance-app/internal/core"
)

// Uncategorized is the display label for transactions whose head no
// longer exists. A real head named the same merges into this row.
const Uncategorized = "Uncategorized"

// SummaryRow is a per-head rollup of income, expense and net totals.
// Derived on every read, never persisted.
type SummaryRow struct {
	Head    string
	Type    core.EntryType
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Aggregate rolls a transaction list up into one SummaryRow per head.
//
// Every known head seeds a zero row carrying its declared type. Each
// transaction is then resolved to a head name (Uncategorized when the
// reference dangles) and its amount added to the income or expense
// accumulator chosen by the transaction's own type, not the head's.
// A head declared "expense" can therefore show income, and vice versa;
// grouping is strictly by resolved name. Rows where both totals are
// zero are dropped, and the remainder is sorted by head name with a
// locale-aware collator.
//
// Pure and deterministic: summation is commutative, so transaction
// order does not matter, and the sort fixes the output order.
func Aggregate(txs []core.Transaction, heads []core.Head) []SummaryRow {
	type bucket struct {
		typ     core.EntryType
		income  decimal.Decimal
		expense decimal.Decimal
	}

	buckets := make(map[string]*bucket, len(heads)+1)
	seed := func(name string, typ core.EntryType) *bucket {
		if b, ok := buckets[name]; ok {
			// Duplicate names merge; the first-seeded type label wins.
			return b
		}
		b := &bucket{typ: typ, income: decimal.Zero, expense: decimal.Zero}
		buckets[name] = b
		return b
	}

	for _, h := range heads {
		seed(h.Name, h.Type)
	}

	byID := make(map[string]core.Head, len(heads))
	for _, h := range heads {
		byID[h.ID] = h
	}

	for _, tx := range txs {
		name := Uncategorized
		if h, ok := byID[tx.HeadID]; ok {
			name = h.Name
		}
		// Unseeded names (the Uncategorized bucket, or a head absent
		// from the head list) take the transaction's type as label.
		b := seed(name, tx.Type)
		if tx.Type == core.Income {
			b.income = b.income.Add(tx.Amount)
		} else {
			b.expense = b.expense.Add(tx.Amount)
		}
	}

	rows := make([]SummaryRow, 0, len(buckets))
	for name, b := range buckets {
		if b.income.IsZero() && b.expense.IsZero() {
			continue
		}
		rows = append(rows, SummaryRow{
			Head:    name,
			Type:    b.typ,
			Income:  b.income,
			Expense: b.expense,
			Net:     b.income.Sub(b.expense),
		})
	}

	c := collate.New(language.Und)
	sort.Slice(rows, func(i, j int) bool {
		return c.CompareString(rows[i].Head, rows[j].Head) < 0
	})
	return rows
}

// Totals sums a summary's income and expense columns; net is their
// difference.
func Totals(rows []SummaryRow) (income, expense, net decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	for _, r := range rows {
		income = income.Add(r.Income)
		expense = expense.Add(r.Expense)
	}
	return income, expense, income.Sub(expense)
}
