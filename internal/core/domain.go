package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "INCOME"
	Expense Kind = "EXPENSE"
)

const maxDescriptionLength = 200

type (
	Kind string

	// Transaction is one dated ledger record. SeriesID is empty for one-off
	// transactions and shared by every instance of a recurring series.
	Transaction struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Kind        Kind            `json:"type"`
		Category    Category        `json:"category,omitempty"`
		Date        time.Time       `json:"date"`
		SeriesID    string          `json:"recurringId,omitempty"`
	}

	// Template carries the user-entered fields of a transaction without
	// identity. It is the input of an expansion and of an edit.
	Template struct {
		Description string
		Amount      decimal.Decimal
		Kind        Kind
		Category    Category
		Date        time.Time
	}

	// Fields are the replacement values applied by an edit.
	Fields = Template
)

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

// ParseKind accepts the stored names in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// IsRecurring reports whether the transaction belongs to a series.
func (t Transaction) IsRecurring() bool {
	return t.SeriesID != ""
}

// Template returns the transaction's user-editable fields.
func (t Transaction) Template() Template {
	return Template{
		Description: t.Description,
		Amount:      t.Amount,
		Kind:        t.Kind,
		Category:    t.Category,
		Date:        t.Date,
	}
}

// Normalize trims the description and drops the category of income entries.
func (tpl Template) Normalize() Template {
	tpl.Description = strings.TrimSpace(tpl.Description)
	if tpl.Kind == Income {
		tpl.Category = ""
	}
	return tpl
}

func (tpl Template) Validate() error {
	if tpl.Date.IsZero() {
		return ErrInvalidDate
	}
	desc := strings.TrimSpace(tpl.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if !tpl.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !tpl.Kind.IsValid() {
		return ErrInvalidKind
	}
	if tpl.Kind == Expense {
		if tpl.Category == "" {
			return ErrMissingCategory
		}
		if !tpl.Category.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, tpl.Category)
		}
	}
	return nil
}

// Apply replaces the user-editable fields of t, keeping its id and series id.
func (t Transaction) Apply(f Fields, date time.Time) Transaction {
	f = f.Normalize()
	t.Description = f.Description
	t.Amount = f.Amount
	t.Kind = f.Kind
	t.Category = f.Category
	t.Date = date
	return t
}
