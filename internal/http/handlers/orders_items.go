package handlers

import (
	"fmt"
	"net/http"

	"thaniel-pos-services/internal/inventory"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/pkg/response"
)

type orderItemPayload struct {
	MenuID   int64  `json:"menuId"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type addOrderItemsPayload struct {
	Items []orderItemPayload `json:"items"`
}

// OrderAddItems appends a batch of menu lines to an existing order. The whole
// batch is checked against current stock and committed atomically with its
// ingredient deductions and ledger entries; on any shortfall nothing is
// written and the caller gets the shortfall detail back.
func (h *Handler) OrderAddItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := readPathString(r, "code")
	if code == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_CODE", "Order code is required")
		return
	}

	var payload addOrderItemsPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if len(payload.Items) == 0 {
		response.ValidationError(w, map[string]string{"items": "Add at least one item"})
		return
	}

	fields := make(map[string]string)
	for i, item := range payload.Items {
		if item.MenuID <= 0 {
			fields[fmt.Sprintf("items.%d.menuId", i)] = "Menu is required"
		}
		if item.Quantity <= 0 {
			fields[fmt.Sprintf("items.%d.quantity", i)] = "Quantity must be positive"
		}
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	lines := make([]inventory.OrderLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, inventory.OrderLine{
			MenuID:   item.MenuID,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		})
	}

	result, err := h.Inventory.PlaceOrder(ctx, code, lines)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.publishEvent(ctx, queue.EventOrderPlaced, queue.OrderEventPayload{
		OrderID:   result.OrderID,
		OrderCode: code,
		Lines:     result.LinesAdded,
	})
	h.notifyIfLowStock(ctx, result.ItemIDs)

	response.Created(w, map[string]any{
		"orderId":      result.OrderID,
		"orderCode":    code,
		"linesAdded":   result.LinesAdded,
		"ledgerWrites": result.LedgerWrites,
	})
}

var orderLineStatuses = map[string]bool{
	"pending":   true,
	"preparing": true,
	"served":    true,
}

type updateOrderItemStatusPayload struct {
	Status string `json:"status"`
}

// OrderItemUpdateStatus moves a single kitchen line between pending,
// preparing, and served. Stock is untouched; it was deducted when the line
// was placed.
func (h *Handler) OrderItemUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order item id")
		return
	}

	var payload updateOrderItemStatusPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if !orderLineStatuses[payload.Status] {
		response.ValidationError(w, map[string]string{"status": "Select a status"})
		return
	}

	res, err := h.DB.Exec(ctx, `update orders_menus set status = $1 where id = $2`, payload.Status, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ORDER_ITEM_NOT_FOUND", "Order item not found")
		return
	}

	response.Success(w, map[string]any{"id": id, "status": payload.Status})
}
