package core

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

type (
	// EntryType classifies both heads and transactions as income or expense.
	// A transaction's type is independent of its head's declared type.
	EntryType string

	// Date is a calendar day without a time-of-day component.
	// The zero value means "missing or unparsable".
	Date struct {
		time.Time
	}

	// Head is a named P&L category with a declared nature.
	Head struct {
		ID        string
		Name      string
		Type      EntryType
		CreatedAt time.Time
	}

	// Transaction is a single dated monetary event assigned to a head.
	// HeadID may dangle if the head was deleted; reports resolve such
	// transactions under the Uncategorized label.
	Transaction struct {
		ID          string
		Amount      decimal.Decimal
		Type        EntryType
		HeadID      string
		Date        Date
		Description string
		ReceiptURL  string
		CreatedAt   time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid entry type")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty head name")
	ErrMissingHead     = errors.New("missing head")
	ErrInvalidReceipt  = errors.New("invalid receipt url")
	ErrNameTooLong     = errors.New("head name too long (max 100 characters)")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// ParseEntryType parses "income" or "expense".
func ParseEntryType(s string) (EntryType, error) {
	switch EntryType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// ParseDate parses a YYYY-MM-DD calendar date. Malformed input yields the
// zero Date and an error; callers that tolerate missing dates check
// Date.IsZero instead of failing.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String renders the wire format, or the empty string for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return Date{Time: d.AddDate(0, 0, 1)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (h Head) Validate() error {
	name := strings.TrimSpace(h.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	if !h.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.HeadID) == "" {
		return ErrMissingHead
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	if t.ReceiptURL != "" {
		u, err := url.Parse(t.ReceiptURL)
		if err != nil || u.Scheme == "" {
			return ErrInvalidReceipt
		}
	}
	return nil
}
