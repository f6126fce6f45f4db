package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// MonthlyPeriod is the only budget period the evaluator acts on.
	MonthlyPeriod = "monthly"

	// OtherCategoryID groups expenses whose category reference does not
	// resolve to a known category.
	OtherCategoryID = "other"

	OtherCategoryName   = "Altro"
	UnknownCategoryName = "Categoria sconosciuta"

	DefaultCategoryIcon  = "💸"
	NeutralCategoryColor = "#AAAAAA"
)

var (
	ErrEmptyCategoryID   = errors.New("empty category id")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrInvalidLimit      = errors.New("budget limit must be positive")
	ErrInvalidPeriod     = errors.New("invalid budget period")
	ErrEmptyTransaction  = errors.New("empty transaction id")
)

type (
	// Money is a signed amount in euro cents. Negative cents are expenses,
	// non-negative cents (zero included) are income.
	Money struct {
		Cents int64
	}

	// Category is a user-defined transaction label.
	Category struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Icon  string `json:"icon,omitempty"`
		Color string `json:"color,omitempty"`
	}

	// Transaction is a single income or expense movement. The direction is
	// derived from the amount sign only.
	Transaction struct {
		ID          string      `json:"_id"`
		Date        Date        `json:"date"`
		Description string      `json:"description,omitempty"`
		Amount      Money       `json:"amount"`
		Category    CategoryRef `json:"category,omitempty"`
		CreatedAt   time.Time   `json:"createdAt,omitempty"`
	}

	// Budget caps monthly spending for one category. Spent amounts are never
	// stored; they are recomputed from transactions at read time.
	Budget struct {
		ID       string      `json:"_id"`
		Category CategoryRef `json:"category"`
		Limit    Money       `json:"limit"`
		Period   string      `json:"period,omitempty"`
	}
)

// IsIncome reports whether the transaction counts as income. Zero amounts
// classify as income.
func (t Transaction) IsIncome() bool {
	return t.Amount.Cents >= 0
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTransaction
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCategoryID
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// WithDefaults fills the display glyph and color when the record carries none.
func (c Category) WithDefaults() Category {
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = NeutralCategoryColor
	}
	return c
}

func (b Budget) Validate() error {
	if b.Limit.Cents <= 0 {
		return ErrInvalidLimit
	}
	if b.Period != "" && b.Period != MonthlyPeriod {
		return ErrInvalidPeriod
	}
	return nil
}

// Actionable reports whether the budget can produce a meaningful ratio.
// Non-positive limits degrade to a zero ratio instead of a division fault.
func (b Budget) Actionable() bool {
	return b.Limit.Cents > 0
}

// OtherCategory is the sentinel group substituted when a category reference
// fails to resolve. Category deletion must never crash downstream views.
func OtherCategory() Category {
	return Category{
		ID:    OtherCategoryID,
		Name:  OtherCategoryName,
		Icon:  DefaultCategoryIcon,
		Color: NeutralCategoryColor,
	}
}
