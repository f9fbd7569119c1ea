package inventory

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	TransactionIn  = "in"
	TransactionOut = "out"

	ReferenceManual = "manual"
	ReferenceOrder  = "order"
)

// RecipeLine is one edge of a menu's recipe: consuming one unit of the menu
// item consumes QuantityNeeded units of the inventory item.
type RecipeLine struct {
	ItemID         int64
	QuantityNeeded float64
}

// OrderLine is one submitted (menu, quantity) pair of an order batch.
type OrderLine struct {
	MenuID   int64
	Quantity int
	Notes    string
	Status   string
}

// Requirement is the aggregated stock demand of a batch for a single item.
type Requirement struct {
	ItemID   int64
	Quantity float64
}

type StockLevel struct {
	ItemID       int64
	Name         string
	CurrentStock float64
	MinimumStock float64
}

// Low reports whether the item sits at or below its reorder threshold.
func (l StockLevel) Low() bool {
	return l.CurrentStock <= l.MinimumStock
}

// LedgerEntry is an immutable inventory_transactions row. Quantity is signed:
// negative for "out", positive for "in".
type LedgerEntry struct {
	ItemID        int64
	Type          string
	Quantity      float64
	ReferenceType string
	ReferenceID   int64
	Notes         string
}

var ErrOrderNotFound = errors.New("order not found")

type InsufficientStockError struct {
	ItemName  string
	Required  float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Required: %s, Available: %s",
		e.ItemName, formatQty(e.Required), formatQty(e.Available))
}

// MissingIngredientError marks a recipe edge pointing at an inventory row
// that no longer exists. The batch must fail; a broken reference is never
// treated as infinite stock.
type MissingIngredientError struct {
	ItemID int64
}

func (e *MissingIngredientError) Error() string {
	return fmt.Sprintf("inventory item %d not found", e.ItemID)
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
