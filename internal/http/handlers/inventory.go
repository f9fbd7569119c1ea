package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/internal/inventory"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/internal/utils"
	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type inventoryItem struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Unit         string    `json:"unit"`
	CurrentStock float64   `json:"currentStock"`
	MinimumStock float64   `json:"minimumStock"`
	UnitPrice    float64   `json:"unitPrice"`
	SupplierID   *int64    `json:"supplierId"`
	SupplierName *string   `json:"supplierName"`
	Low          bool      `json:"low"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type inventoryItemPayload struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit"`
	CurrentStock float64 `json:"currentStock"`
	MinimumStock float64 `json:"minimumStock"`
	UnitPrice    float64 `json:"unitPrice"`
	SupplierID   *int64  `json:"supplierId"`
}

func (p inventoryItemPayload) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(p.Category) == "" {
		fields["category"] = "Category is required"
	}
	if strings.TrimSpace(p.Unit) == "" {
		fields["unit"] = "Unit is required"
	}
	if p.CurrentStock < 0 {
		fields["currentStock"] = "Current stock cannot be negative"
	}
	if p.MinimumStock < 0 {
		fields["minimumStock"] = "Minimum stock cannot be negative"
	}
	if p.UnitPrice < 0 {
		fields["unitPrice"] = "Unit price cannot be negative"
	}
	return fields
}

func (h *Handler) InventoryList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)
	search := "%" + readSearchParam(r) + "%"
	lowOnly := r.URL.Query().Get("low") == "true"

	query := `
		select i.id, i.name, i.category, i.unit, i.current_stock, i.minimum_stock, i.unit_price,
			i.supplier_id, s.name, i.created_at, i.updated_at
		from inventory_items i
		left join suppliers s on s.id = i.supplier_id
		where i.name ilike $1
	`
	if lowOnly {
		query += ` and i.current_stock <= i.minimum_stock`
	}
	query += ` order by i.name limit $2 offset $3`

	rows, err := h.DB.Query(ctx, query, search, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]inventoryItem, 0)
	for rows.Next() {
		var (
			item         inventoryItem
			unitPrice    pgtype.Numeric
			supplierID   pgtype.Int8
			supplierName pgtype.Text
		)
		if err := rows.Scan(
			&item.ID, &item.Name, &item.Category, &item.Unit,
			&item.CurrentStock, &item.MinimumStock, &unitPrice,
			&supplierID, &supplierName, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			h.writeDomainError(w, err)
			return
		}
		item.UnitPrice = utils.NumericToFloat64(unitPrice)
		item.SupplierID = int8Ptr(supplierID)
		item.SupplierName = textPtr(supplierName)
		item.Low = item.CurrentStock <= item.MinimumStock
		items = append(items, item)
	}

	countQuery := `select count(*) from inventory_items where name ilike $1`
	if lowOnly {
		countQuery += ` and current_stock <= minimum_stock`
	}
	var total int64
	if err := h.DB.QueryRow(ctx, countQuery, search).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"items": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

func (h *Handler) InventoryCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload inventoryItemPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if fields := payload.validate(); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	var id int64
	err := h.DB.QueryRow(ctx, `
		insert into inventory_items (name, category, unit, current_stock, minimum_stock, unit_price, supplier_id)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning id
	`, strings.TrimSpace(payload.Name), payload.Category, payload.Unit,
		payload.CurrentStock, payload.MinimumStock, payload.UnitPrice, payload.SupplierID).Scan(&id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]any{"id": id})
}

func (h *Handler) InventoryUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid item id")
		return
	}

	var payload inventoryItemPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if fields := payload.validate(); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	res, err := h.DB.Exec(ctx, `
		update inventory_items
		set name = $1, category = $2, unit = $3, current_stock = $4,
			minimum_stock = $5, unit_price = $6, supplier_id = $7, updated_at = now()
		where id = $8
	`, strings.TrimSpace(payload.Name), payload.Category, payload.Unit,
		payload.CurrentStock, payload.MinimumStock, payload.UnitPrice, payload.SupplierID, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Inventory item not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

func (h *Handler) InventoryDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid item id")
		return
	}

	res, err := h.DB.Exec(ctx, `delete from inventory_items where id = $1`, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Inventory item not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

type adjustStockPayload struct {
	ItemID          int64   `json:"itemId"`
	TransactionType string  `json:"transactionType"`
	Quantity        float64 `json:"quantity"`
	Notes           string  `json:"notes"`
}

func (h *Handler) InventoryAdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload adjustStockPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	fields := make(map[string]string)
	if payload.ItemID <= 0 {
		fields["itemId"] = "Item is required"
	}
	if payload.TransactionType != inventory.TransactionIn && payload.TransactionType != inventory.TransactionOut {
		fields["transactionType"] = "Type is required"
	}
	if payload.Quantity <= 0 {
		fields["quantity"] = "Quantity must be positive"
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	if err := h.Inventory.AdjustStock(ctx, payload.ItemID, payload.TransactionType, payload.Quantity, payload.Notes); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.notifyIfLowStock(ctx, []int64{payload.ItemID})

	response.Success(w, map[string]any{"itemId": payload.ItemID})
}

// notifyIfLowStock publishes a low-stock event for any of the touched items
// now at or under their minimum.
func (h *Handler) notifyIfLowStock(ctx context.Context, itemIDs []int64) {
	if h.Queue == nil || len(itemIDs) == 0 {
		return
	}

	rows, err := h.DB.Query(ctx, `
		select id, name, unit, current_stock, minimum_stock
		from inventory_items
		where id = any($1) and current_stock <= minimum_stock
	`, itemIDs)
	if err != nil {
		h.Logger.Warn("low stock lookup failed", zap.Error(err))
		return
	}
	defer rows.Close()

	for rows.Next() {
		var payload queue.LowStockEventPayload
		if err := rows.Scan(&payload.ItemID, &payload.Name, &payload.Unit, &payload.CurrentStock, &payload.MinimumStock); err != nil {
			return
		}
		h.publishEvent(ctx, queue.EventLowStock, payload)
	}
}
