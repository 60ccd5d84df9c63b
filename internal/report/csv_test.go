package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vansh-20/school-finance-app/internal/core"
)

func TestWriteTransactionsCSVRoundTrip(t *testing.T) {
	heads := []core.Head{{ID: "1", Name: "Office, Supplies", Type: core.Expense}}
	txs := []core.Transaction{
		{
			ID:          "b",
			HeadID:      "1",
			Type:        core.Expense,
			Amount:      decimal.RequireFromString("12.50"),
			Date:        core.NewDate(2024, 1, 10),
			Description: "paper \"A4\",\nreams",
			ReceiptURL:  "https://example.com/r/1",
		},
		{
			ID:     "a",
			HeadID: "99",
			Type:   core.Income,
			Amount: decimal.RequireFromString("100.00"),
			Date:   core.NewDate(2024, 1, 5),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, txs, heads))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, TransactionsHeader, records[0])

	// Sorted ascending by date: "a" (Jan 5) before "b" (Jan 10).
	assert.Equal(t, []string{"2024-01-05", "income", "Uncategorized", "", "100.00", ""}, records[1])
	assert.Equal(t, []string{"2024-01-10", "expense", "Office, Supplies", "paper \"A4\",\nreams", "12.50", "https://example.com/r/1"}, records[2])
}

func TestWriteTransactionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTransactionsCSV(&buf, nil, nil)
	require.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len(), "no bytes may be written for an empty report")
}

func TestWriteSummaryCSV(t *testing.T) {
	rows := []SummaryRow{
		{Head: "Rent", Type: core.Expense, Income: decimal.Zero, Expense: decimal.NewFromInt(1200), Net: decimal.NewFromInt(-1200)},
		{Head: "Salary", Type: core.Income, Income: decimal.NewFromInt(5000), Expense: decimal.Zero, Net: decimal.NewFromInt(5000)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryCSV(&buf, rows))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, SummaryHeader, records[0])
	assert.Equal(t, []string{"Rent", "expense", "0.00", "1200.00", "-1200.00"}, records[1])
	assert.Equal(t, []string{"Salary", "income", "5000.00", "0.00", "5000.00"}, records[2])
	assert.Equal(t, []string{"TOTALS", "", "5000.00", "1200.00", "3800.00"}, records[3])
}

func TestWriteSummaryCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, WriteSummaryCSV(&buf, nil), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename("pnl-summary", core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 31))
	assert.Equal(t, "pnl-summary_2024-01-01_to_2024-01-31.csv", got)
}
