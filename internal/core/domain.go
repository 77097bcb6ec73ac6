package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ClassL Class = "L"
	ClassN Class = "N"
	ClassS Class = "S"
	ClassE Class = "E"
)

type (
	// Class is the accounting class of a movement.
	Class string

	// Movement is one committed ledger entry. Fields are attached one per
	// conversation step and are all required at commit time.
	Movement struct {
		Amount      decimal.Decimal
		Date        string // canonical DD/MM/YYYY
		Description string
		Category    string
		Class       Class
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidClass     = errors.New("invalid class")
)

// ParseClass validates a class letter, case-insensitively.
func ParseClass(s string) (Class, error) {
	switch Class(strings.ToUpper(strings.TrimSpace(s))) {
	case ClassL:
		return ClassL, nil
	case ClassN:
		return ClassN, nil
	case ClassS:
		return ClassS, nil
	case ClassE:
		return ClassE, nil
	}
	return "", ErrInvalidClass
}

// Classes returns the valid class letters in menu order.
func Classes() []Class {
	return []Class{ClassL, ClassN, ClassS, ClassE}
}

func (c Class) Validate() error {
	switch c {
	case ClassL, ClassN, ClassS, ClassE:
		return nil
	}
	return ErrInvalidClass
}

func (m Movement) Validate() error {
	if _, err := ParseEntryDate(m.Date, nil); err != nil {
		return err
	}
	if len(strings.TrimSpace(m.Description)) == 0 {
		return ErrEmptyDescription
	}
	if CategoryIndex(m.Category) == 0 {
		return ErrUnknownCategory
	}
	return m.Class.Validate()
}

// Row renders the movement as the fixed ledger row
// [amount, date, description, category, class].
func (m Movement) Row() []any {
	return []any{m.Amount.InexactFloat64(), m.Date, m.Description, m.Category, string(m.Class)}
}
