package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists the fulfillment workflow against the shared Postgres
// schema. Stock increments go through the add_inventory_stock routine; the
// non-negative-enforcing decrement path uses a guarded update so the row
// itself rejects a deduction the remaining stock does not cover.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) OrderIDByCode(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `select id from orders where order_id = $1`, code).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrOrderNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PgStore) ResolveRecipe(ctx context.Context, menuID int64) ([]RecipeLine, error) {
	rows, err := s.db.Query(ctx, `
		select item_id, quantity_needed
		from menu_ingredients
		where menu_id = $1
		order by item_id
	`, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipe := make([]RecipeLine, 0)
	for rows.Next() {
		var line RecipeLine
		if err := rows.Scan(&line.ItemID, &line.QuantityNeeded); err != nil {
			return nil, err
		}
		recipe = append(recipe, line)
	}
	return recipe, rows.Err()
}

func (s *PgStore) StockLevels(ctx context.Context, itemIDs []int64) (map[int64]StockLevel, error) {
	rows, err := s.db.Query(ctx, `
		select id, name, current_stock, minimum_stock
		from inventory_items
		where id = any($1)
	`, itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[int64]StockLevel, len(itemIDs))
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.ItemID, &level.Name, &level.CurrentStock, &level.MinimumStock); err != nil {
			return nil, err
		}
		levels[level.ItemID] = level
	}
	return levels, rows.Err()
}

func (s *PgStore) CommitOrder(ctx context.Context, orderID int64, lines []OrderLine, deductions []Requirement, entries []LedgerEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, line := range lines {
		status := line.Status
		if status == "" {
			status = "pending"
		}
		_, err := tx.Exec(ctx, `
			insert into orders_menus (order_id, menu_id, quantity, notes, status)
			values ($1, $2, $3, $4, $5)
		`, orderID, line.MenuID, line.Quantity, line.Notes, status)
		if err != nil {
			return err
		}
	}

	for _, d := range deductions {
		if err := deductGuarded(ctx, tx, d.ItemID, d.Quantity); err != nil {
			return err
		}
	}

	for _, e := range entries {
		if err := insertLedgerEntry(ctx, tx, e); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PgStore) AdjustStock(ctx context.Context, itemID int64, delta float64, enforceNonNegative bool, entry LedgerEntry) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	switch {
	case delta >= 0:
		if _, err := tx.Exec(ctx, `select add_inventory_stock($1, $2)`, itemID, delta); err != nil {
			return err
		}
	case enforceNonNegative:
		if err := deductGuarded(ctx, tx, itemID, -delta); err != nil {
			return err
		}
	default:
		if _, err := tx.Exec(ctx, `select deduct_inventory_stock($1, $2)`, itemID, -delta); err != nil {
			return err
		}
	}

	if err := insertLedgerEntry(ctx, tx, entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// deductGuarded decrements current_stock only when the row still covers the
// quantity. A zero-row update means either a concurrent deduction won the
// race or the item vanished; both surface as domain errors built from a
// fresh read.
func deductGuarded(ctx context.Context, tx pgx.Tx, itemID int64, quantity float64) error {
	res, err := tx.Exec(ctx, `
		update inventory_items
		set current_stock = current_stock - $1, updated_at = now()
		where id = $2 and current_stock >= $1
	`, quantity, itemID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 1 {
		return nil
	}

	var name string
	var available float64
	err = tx.QueryRow(ctx, `select name, current_stock from inventory_items where id = $1`, itemID).
		Scan(&name, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &MissingIngredientError{ItemID: itemID}
	}
	if err != nil {
		return err
	}
	return &InsufficientStockError{ItemName: name, Required: quantity, Available: available}
}

func insertLedgerEntry(ctx context.Context, tx pgx.Tx, e LedgerEntry) error {
	var referenceID any
	if e.ReferenceID != 0 {
		referenceID = e.ReferenceID
	}
	_, err := tx.Exec(ctx, `
		insert into inventory_transactions (item_id, transaction_type, quantity, reference_type, reference_id, notes)
		values ($1, $2, $3, $4, $5, $6)
	`, e.ItemID, e.Type, e.Quantity, e.ReferenceType, referenceID, e.Notes)
	return err
}
