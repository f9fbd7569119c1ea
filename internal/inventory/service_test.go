package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	mu      sync.Mutex
	orders  map[string]int64
	recipes map[int64][]RecipeLine
	items   map[int64]*StockLevel
	lines   []OrderLine
	ledger  []LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		orders:  make(map[string]int64),
		recipes: make(map[int64][]RecipeLine),
		items:   make(map[int64]*StockLevel),
	}
}

func (m *memStore) OrderIDByCode(_ context.Context, code string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.orders[code]
	if !ok {
		return 0, ErrOrderNotFound
	}
	return id, nil
}

func (m *memStore) ResolveRecipe(_ context.Context, menuID int64) ([]RecipeLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recipe := make([]RecipeLine, len(m.recipes[menuID]))
	copy(recipe, m.recipes[menuID])
	return recipe, nil
}

func (m *memStore) StockLevels(_ context.Context, itemIDs []int64) (map[int64]StockLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	levels := make(map[int64]StockLevel)
	for _, id := range itemIDs {
		if item, ok := m.items[id]; ok {
			levels[id] = *item
		}
	}
	return levels, nil
}

// CommitOrder mirrors the Postgres store: all guards are evaluated before any
// mutation, and the whole batch lands or none of it does.
func (m *memStore) CommitOrder(_ context.Context, _ int64, lines []OrderLine, deductions []Requirement, entries []LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := make(map[int64]float64)
	for _, d := range deductions {
		if _, ok := remaining[d.ItemID]; !ok {
			item, exists := m.items[d.ItemID]
			if !exists {
				return &MissingIngredientError{ItemID: d.ItemID}
			}
			remaining[d.ItemID] = item.CurrentStock
		}
		remaining[d.ItemID] -= d.Quantity
		if remaining[d.ItemID] < 0 {
			item := m.items[d.ItemID]
			return &InsufficientStockError{
				ItemName:  item.Name,
				Required:  d.Quantity,
				Available: item.CurrentStock,
			}
		}
	}

	for id, stock := range remaining {
		m.items[id].CurrentStock = stock
	}
	m.lines = append(m.lines, lines...)
	m.ledger = append(m.ledger, entries...)
	return nil
}

func (m *memStore) AdjustStock(_ context.Context, itemID int64, delta float64, enforceNonNegative bool, entry LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return &MissingIngredientError{ItemID: itemID}
	}
	if enforceNonNegative && item.CurrentStock+delta < 0 {
		return &InsufficientStockError{
			ItemName:  item.Name,
			Required:  -delta,
			Available: item.CurrentStock,
		}
	}
	item.CurrentStock += delta
	m.ledger = append(m.ledger, entry)
	return nil
}

func (m *memStore) stock(itemID int64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[itemID].CurrentStock
}

func newTestService(store *memStore) *Service {
	return NewService(store, zap.NewNop())
}

func TestPlaceOrderWithoutTrackedIngredients(t *testing.T) {
	store := newMemStore()
	store.orders["THANIELCAFE-1"] = 11
	store.recipes[1] = nil // drip coffee, nothing tracked

	svc := newTestService(store)
	result, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-1", []OrderLine{
		{MenuID: 1, Quantity: 2, Status: "pending"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(11), result.OrderID)
	assert.Equal(t, 1, result.LinesAdded)
	assert.Equal(t, 0, result.LedgerWrites)
	assert.Len(t, store.lines, 1)
	assert.Empty(t, store.ledger)
}

func TestPlaceOrderDeductsStockAndWritesLedger(t *testing.T) {
	store := newMemStore()
	store.orders["THANIELCAFE-2"] = 22
	store.items[101] = &StockLevel{ItemID: 101, Name: "Espresso Beans", CurrentStock: 100}
	store.items[102] = &StockLevel{ItemID: 102, Name: "Milk", CurrentStock: 50}
	store.recipes[1] = []RecipeLine{
		{ItemID: 101, QuantityNeeded: 2},
		{ItemID: 102, QuantityNeeded: 3},
	}
	store.recipes[2] = []RecipeLine{
		{ItemID: 102, QuantityNeeded: 1},
	}

	svc := newTestService(store)
	result, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-2", []OrderLine{
		{MenuID: 1, Quantity: 3}, // 6 beans, 9 milk
		{MenuID: 2, Quantity: 4}, // 4 milk
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.LedgerWrites) // one per (line, ingredient) pair
	assert.Equal(t, float64(94), store.stock(101))
	assert.Equal(t, float64(37), store.stock(102))

	require.Len(t, store.ledger, 3)
	for _, entry := range store.ledger {
		assert.Equal(t, TransactionOut, entry.Type)
		assert.Equal(t, ReferenceOrder, entry.ReferenceType)
		assert.Equal(t, int64(22), entry.ReferenceID)
		assert.Equal(t, "Used for Order THANIELCAFE-2", entry.Notes)
		assert.Negative(t, entry.Quantity)
	}
	assert.Equal(t, float64(-6), store.ledger[0].Quantity)
	assert.Equal(t, float64(-9), store.ledger[1].Quantity)
	assert.Equal(t, float64(-4), store.ledger[2].Quantity)
}

func TestPlaceOrderInsufficientStockWritesNothing(t *testing.T) {
	store := newMemStore()
	store.orders["THANIELCAFE-3"] = 33
	store.items[101] = &StockLevel{ItemID: 101, Name: "Butter", CurrentStock: 5}
	store.recipes[1] = []RecipeLine{{ItemID: 101, QuantityNeeded: 5}}

	svc := newTestService(store)
	_, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-3", []OrderLine{
		{MenuID: 1, Quantity: 2}, // requires 10, only 5 available
	})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Insufficient stock for Butter. Required: 10, Available: 5", err.Error())
	assert.Empty(t, store.lines)
	assert.Empty(t, store.ledger)
	assert.Equal(t, float64(5), store.stock(101))
}

func TestPlaceOrderBrokenIngredientReferenceFailsHard(t *testing.T) {
	store := newMemStore()
	store.orders["THANIELCAFE-4"] = 44
	store.recipes[1] = []RecipeLine{{ItemID: 999, QuantityNeeded: 1}}

	svc := newTestService(store)
	_, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-4", []OrderLine{
		{MenuID: 1, Quantity: 1},
	})

	var missing *MissingIngredientError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, int64(999), missing.ItemID)
	assert.Empty(t, store.lines)
	assert.Empty(t, store.ledger)
}

func TestPlaceOrderUnknownOrderCode(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-404", []OrderLine{
		{MenuID: 1, Quantity: 1},
	})
	assert.True(t, errors.Is(err, ErrOrderNotFound))
}

func TestPlaceOrderAggregatesSharedIngredientAcrossLines(t *testing.T) {
	store := newMemStore()
	store.orders["THANIELCAFE-5"] = 55
	store.items[101] = &StockLevel{ItemID: 101, Name: "Milk", CurrentStock: 10}
	store.recipes[1] = []RecipeLine{{ItemID: 101, QuantityNeeded: 6}}
	store.recipes[2] = []RecipeLine{{ItemID: 101, QuantityNeeded: 6}}

	svc := newTestService(store)
	// Each line alone fits in 10, together they need 12.
	_, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-5", []OrderLine{
		{MenuID: 1, Quantity: 1},
		{MenuID: 2, Quantity: 1},
	})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, float64(12), insufficient.Required)
	assert.Equal(t, float64(10), insufficient.Available)
	assert.Empty(t, store.lines)
}

func TestPlaceOrderRejectsInvalidBatch(t *testing.T) {
	svc := newTestService(newMemStore())

	_, err := svc.PlaceOrder(context.Background(), "THANIELCAFE-6", nil)
	assert.Error(t, err)

	_, err = svc.PlaceOrder(context.Background(), "THANIELCAFE-6", []OrderLine{
		{MenuID: 1, Quantity: 0},
	})
	assert.Error(t, err)
}

func TestResolveRecipeIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.recipes[7] = []RecipeLine{
		{ItemID: 101, QuantityNeeded: 2},
		{ItemID: 102, QuantityNeeded: 0.5},
	}

	svc := newTestService(store)
	first, err := svc.ResolveRecipe(context.Background(), 7)
	require.NoError(t, err)
	second, err := svc.ResolveRecipe(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAdjustStockManualOut(t *testing.T) {
	store := newMemStore()
	store.items[101] = &StockLevel{ItemID: 101, Name: "Sugar", CurrentStock: 20}

	svc := newTestService(store)
	err := svc.AdjustStock(context.Background(), 101, TransactionOut, 8, "spillage")

	require.NoError(t, err)
	assert.Equal(t, float64(12), store.stock(101))
	require.Len(t, store.ledger, 1)
	assert.Equal(t, float64(-8), store.ledger[0].Quantity)
	assert.Equal(t, ReferenceManual, store.ledger[0].ReferenceType)
	assert.Equal(t, "spillage", store.ledger[0].Notes)
}

func TestAdjustStockManualOutInsufficient(t *testing.T) {
	store := newMemStore()
	store.items[101] = &StockLevel{ItemID: 101, Name: "Sugar", CurrentStock: 3}

	svc := newTestService(store)
	err := svc.AdjustStock(context.Background(), 101, TransactionOut, 10, "")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Contains(t, err.Error(), "Insufficient stock")
	assert.Equal(t, float64(3), store.stock(101))
	assert.Empty(t, store.ledger)
}

func TestAdjustStockManualInHasNoUpperBound(t *testing.T) {
	store := newMemStore()
	store.items[101] = &StockLevel{ItemID: 101, Name: "Flour", CurrentStock: 1}

	svc := newTestService(store)
	require.NoError(t, svc.AdjustStock(context.Background(), 101, TransactionIn, 1000, "restock"))

	assert.Equal(t, float64(1001), store.stock(101))
	require.Len(t, store.ledger, 1)
	assert.Equal(t, float64(1000), store.ledger[0].Quantity)
	assert.Equal(t, TransactionIn, store.ledger[0].Type)
}

func TestAdjustStockRejectsBadInput(t *testing.T) {
	store := newMemStore()
	store.items[101] = &StockLevel{ItemID: 101, Name: "Flour", CurrentStock: 1}
	svc := newTestService(store)

	assert.Error(t, svc.AdjustStock(context.Background(), 101, TransactionIn, 0, ""))
	assert.Error(t, svc.AdjustStock(context.Background(), 101, TransactionIn, -4, ""))
	assert.Error(t, svc.AdjustStock(context.Background(), 101, "transfer", 4, ""))
}

// Two placements that each pass the pre-check against the same stock snapshot
// must not both deduct: the commit-time guard admits at most one.
func TestConcurrentPlacementsDeductAtMostOnce(t *testing.T) {
	store := newMemStore()
	store.items[101] = &StockLevel{ItemID: 101, Name: "Matcha", CurrentStock: 10}
	store.recipes[1] = []RecipeLine{{ItemID: 101, QuantityNeeded: 10}}
	for i := 0; i < 2; i++ {
		store.orders[fmt.Sprintf("THANIELCAFE-RACE-%d", i)] = int64(100 + i)
	}

	svc := newTestService(store)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.PlaceOrder(context.Background(),
				fmt.Sprintf("THANIELCAFE-RACE-%d", i),
				[]OrderLine{{MenuID: 1, Quantity: 1}})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			var insufficient *InsufficientStockError
			assert.ErrorAs(t, err, &insufficient)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, float64(0), store.stock(101))
	assert.Len(t, store.ledger, 1)
}
