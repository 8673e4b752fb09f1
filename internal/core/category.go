package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is an expense category, stored by its display name.
type Category string

const (
	Groceries      Category = "Groceries"
	Utilities      Category = "Utilities"
	Rent           Category = "Rent"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	DiningOut      Category = "Dining Out"
	Shopping       Category = "Shopping"
	Other          Category = "Other"
)

// NumCategories is the size of the closed category set.
const NumCategories = 9

// Categories lists every expense category in display order.
var Categories = [NumCategories]Category{
	Groceries,
	Utilities,
	Rent,
	Transportation,
	Entertainment,
	Healthcare,
	DiningOut,
	Shopping,
	Other,
}

// Index returns the position of c in Categories, or -1.
func (c Category) Index() int {
	for i, known := range Categories {
		if known == c {
			return i
		}
	}
	return -1
}

func (c Category) IsValid() bool {
	return c.Index() >= 0
}

// ParseCategory matches s against the category names ignoring case.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// CategoryAmounts holds one amount per category. The zero value maps every
// category to zero.
type CategoryAmounts [NumCategories]decimal.Decimal

func (a CategoryAmounts) Get(c Category) decimal.Decimal {
	if i := c.Index(); i >= 0 {
		return a[i]
	}
	return decimal.Zero
}

func (a *CategoryAmounts) Set(c Category, v decimal.Decimal) {
	if i := c.Index(); i >= 0 {
		a[i] = v
	}
}

func (a CategoryAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a {
		total = total.Add(v)
	}
	return total
}

func (a CategoryAmounts) MarshalJSON() ([]byte, error) {
	m := make(map[Category]decimal.Decimal, NumCategories)
	for i, c := range Categories {
		m[c] = a[i]
	}
	return json.Marshal(m)
}

// UnmarshalJSON leaves categories absent from the object at zero and ignores
// unknown names.
func (a *CategoryAmounts) UnmarshalJSON(data []byte) error {
	var m map[string]decimal.Decimal
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*a = CategoryAmounts{}
	for name, v := range m {
		if c, err := ParseCategory(name); err == nil {
			a.Set(c, v)
		}
	}
	return nil
}

// CategoryFlags holds one boolean per category.
type CategoryFlags [NumCategories]bool

func (f CategoryFlags) Get(c Category) bool {
	if i := c.Index(); i >= 0 {
		return f[i]
	}
	return false
}

func (f *CategoryFlags) Set(c Category, v bool) {
	if i := c.Index(); i >= 0 {
		f[i] = v
	}
}

// Any reports whether at least one category is flagged.
func (f CategoryFlags) Any() bool {
	for _, v := range f {
		if v {
			return true
		}
	}
	return false
}

// MarshalJSON writes only the flagged categories.
func (f CategoryFlags) MarshalJSON() ([]byte, error) {
	m := make(map[Category]bool)
	for i, c := range Categories {
		if f[i] {
			m[c] = true
		}
	}
	return json.Marshal(m)
}

func (f *CategoryFlags) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*f = CategoryFlags{}
	for name, v := range m {
		if c, err := ParseCategory(name); err == nil {
			f.Set(c, v)
		}
	}
	return nil
}
