package core

import (
	"fmt"
	"strings"
)

// categories is the fixed movement category list. Order and spelling are
// load-bearing: the operator picks by 1-based position, and existing
// ledger rows reference these exact strings.
var categories = []string{
	"Abbonamenti Digitali",
	"Affitto",
	"Assicurazione",
	"Autostrada",
	"Bar",
	"Beauty",
	"Beneficienza",
	"Benzina",
	"Cane",
	"Cibo",
	"Delivery",
	"Health",
	"Leisure",
	"Macchina",
	"Parcheggio",
	"Regali",
	"Ristorante",
	"Saving",
	"Shopping",
	"Spese Conto",
	"Supermercato",
	"Tasse",
	"Utenze",
	"Vacanze",
	"Viaggi",
	"Pensione",
	"Proventi",
	"Rimborsi",
	"Stipendio",
}

// Categories returns the category list in menu order.
func Categories() []string {
	return append([]string(nil), categories...)
}

// CategoryCount returns the number of selectable categories.
func CategoryCount() int {
	return len(categories)
}

// CategoryByIndex maps a 1-based menu index to its category name.
func CategoryByIndex(i int) (string, error) {
	if i < 1 || i > len(categories) {
		return "", ErrUnknownCategory
	}
	return categories[i-1], nil
}

// CategoryIndex returns the 1-based position of a category name, or 0
// when the name is not in the list.
func CategoryIndex(name string) int {
	for i, c := range categories {
		if c == name {
			return i + 1
		}
	}
	return 0
}

// CategoryMenu renders the numbered category menu shown to the operator.
func CategoryMenu() string {
	var b strings.Builder
	for i, c := range categories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c)
	}
	return b.String()
}
