package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Store is the persistence contract for the fulfillment workflow. CommitOrder
// and AdjustStock are atomic: either every write lands or none do, and stock
// decrements must fail rather than drive current_stock negative, even under
// concurrent callers.
type Store interface {
	OrderIDByCode(ctx context.Context, code string) (int64, error)
	ResolveRecipe(ctx context.Context, menuID int64) ([]RecipeLine, error)
	StockLevels(ctx context.Context, itemIDs []int64) (map[int64]StockLevel, error)
	CommitOrder(ctx context.Context, orderID int64, lines []OrderLine, deductions []Requirement, entries []LedgerEntry) error
	AdjustStock(ctx context.Context, itemID int64, delta float64, enforceNonNegative bool, entry LedgerEntry) error
}

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) ResolveRecipe(ctx context.Context, menuID int64) ([]RecipeLine, error) {
	return s.store.ResolveRecipe(ctx, menuID)
}

// CheckSufficiency is the pure pre-commit decision: it never mutates stock.
// The first shortfall aborts the batch. An ingredient without a stock level
// is a broken reference and fails hard.
func CheckSufficiency(requirements []Requirement, levels map[int64]StockLevel) error {
	for _, req := range requirements {
		level, ok := levels[req.ItemID]
		if !ok {
			return &MissingIngredientError{ItemID: req.ItemID}
		}
		if level.CurrentStock < req.Quantity {
			return &InsufficientStockError{
				ItemName:  level.Name,
				Required:  req.Quantity,
				Available: level.CurrentStock,
			}
		}
	}
	return nil
}

// aggregateDemand folds per-line recipe demand into one requirement per
// inventory item, preserving order of first appearance. The sufficiency check
// runs against this total so two lines sharing an ingredient cannot each pass
// against the same stock.
func aggregateDemand(demands [][]Requirement) []Requirement {
	index := make(map[int64]int)
	total := make([]Requirement, 0)
	for _, lineReqs := range demands {
		for _, req := range lineReqs {
			if pos, ok := index[req.ItemID]; ok {
				total[pos].Quantity += req.Quantity
				continue
			}
			index[req.ItemID] = len(total)
			total = append(total, req)
		}
	}
	return total
}

type PlacementResult struct {
	OrderID      int64
	LinesAdded   int
	LedgerWrites int
	ItemIDs      []int64
}

// PlaceOrder runs the full fulfillment workflow for one order batch: resolve
// the order row by its human-facing code, resolve recipes, check sufficiency,
// then commit order lines, stock deductions, and ledger entries in a single
// store transaction. Lines whose menus have no tracked ingredients pass
// through without any ledger write. Nothing is written when any check fails.
func (s *Service) PlaceOrder(ctx context.Context, orderCode string, lines []OrderLine) (*PlacementResult, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("order batch is empty")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for menu %d", line.MenuID)
		}
	}

	orderID, err := s.store.OrderIDByCode(ctx, orderCode)
	if err != nil {
		return nil, err
	}

	// One requirement set per line: deductions and ledger entries stay
	// per (line, ingredient) so the audit trail mirrors what was ordered.
	demands := make([][]Requirement, 0, len(lines))
	for _, line := range lines {
		recipe, err := s.store.ResolveRecipe(ctx, line.MenuID)
		if err != nil {
			return nil, err
		}
		lineReqs := make([]Requirement, 0, len(recipe))
		for _, edge := range recipe {
			lineReqs = append(lineReqs, Requirement{
				ItemID:   edge.ItemID,
				Quantity: edge.QuantityNeeded * float64(line.Quantity),
			})
		}
		demands = append(demands, lineReqs)
	}

	total := aggregateDemand(demands)
	if len(total) > 0 {
		itemIDs := make([]int64, 0, len(total))
		for _, req := range total {
			itemIDs = append(itemIDs, req.ItemID)
		}
		levels, err := s.store.StockLevels(ctx, itemIDs)
		if err != nil {
			return nil, err
		}
		if err := CheckSufficiency(total, levels); err != nil {
			return nil, err
		}
	}

	deductions := make([]Requirement, 0)
	entries := make([]LedgerEntry, 0)
	for _, lineReqs := range demands {
		for _, req := range lineReqs {
			deductions = append(deductions, req)
			entries = append(entries, LedgerEntry{
				ItemID:        req.ItemID,
				Type:          TransactionOut,
				Quantity:      -req.Quantity,
				ReferenceType: ReferenceOrder,
				ReferenceID:   orderID,
				Notes:         fmt.Sprintf("Used for Order %s", orderCode),
			})
		}
	}

	// The store re-guards every decrement inside the transaction, so two
	// batches passing the pre-check against the same snapshot cannot both
	// commit a deduction the stock does not cover.
	if err := s.store.CommitOrder(ctx, orderID, lines, deductions, entries); err != nil {
		return nil, err
	}

	result := &PlacementResult{
		OrderID:      orderID,
		LinesAdded:   len(lines),
		LedgerWrites: len(entries),
	}
	for _, req := range total {
		result.ItemIDs = append(result.ItemIDs, req.ItemID)
	}

	s.logger.Info("order placed",
		zap.String("orderCode", orderCode),
		zap.Int64("orderId", orderID),
		zap.Int("lines", result.LinesAdded),
		zap.Int("ledgerWrites", result.LedgerWrites),
	)
	return result, nil
}

// AdjustStock applies a manual operator adjustment. "out" is checked against
// current stock and rejected when it would go negative; "in" has no upper
// bound. Both write a manual ledger entry in the same transaction as the
// stock change.
func (s *Service) AdjustStock(ctx context.Context, itemID int64, transactionType string, quantity float64, notes string) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}

	var delta, signed float64
	var enforce bool
	switch transactionType {
	case TransactionIn:
		delta, signed, enforce = quantity, quantity, false
	case TransactionOut:
		delta, signed, enforce = -quantity, -quantity, true
	default:
		return fmt.Errorf("unknown transaction type %q", transactionType)
	}

	entry := LedgerEntry{
		ItemID:        itemID,
		Type:          transactionType,
		Quantity:      signed,
		ReferenceType: ReferenceManual,
		Notes:         notes,
	}

	if err := s.store.AdjustStock(ctx, itemID, delta, enforce, entry); err != nil {
		return err
	}

	s.logger.Info("stock adjusted",
		zap.Int64("itemId", itemID),
		zap.String("type", transactionType),
		zap.Float64("quantity", quantity),
	)
	return nil
}
