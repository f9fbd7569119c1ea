package handlers

import (
	"net/http"
	"strconv"
	"time"

	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type inventoryTransaction struct {
	ID              int64     `json:"id"`
	ItemID          int64     `json:"itemId"`
	ItemName        string    `json:"itemName"`
	TransactionType string    `json:"transactionType"`
	Quantity        float64   `json:"quantity"`
	ReferenceType   string    `json:"referenceType"`
	ReferenceID     *int64    `json:"referenceId"`
	Notes           *string   `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// InventoryTransactionsList pages through the immutable stock ledger, newest
// first, optionally scoped to one item.
func (h *Handler) InventoryTransactionsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)

	var itemFilter *int64
	if raw := r.URL.Query().Get("itemId"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_ITEM_ID", "Invalid item id")
			return
		}
		itemFilter = &parsed
	}

	rows, err := h.DB.Query(ctx, `
		select t.id, t.item_id, i.name, t.transaction_type, t.quantity,
			t.reference_type, t.reference_id, t.notes, t.created_at
		from inventory_transactions t
		join inventory_items i on i.id = t.item_id
		where ($1::bigint is null or t.item_id = $1)
		order by t.created_at desc, t.id desc
		limit $2 offset $3
	`, itemFilter, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]inventoryTransaction, 0)
	for rows.Next() {
		var (
			t           inventoryTransaction
			referenceID pgtype.Int8
			notes       pgtype.Text
		)
		if err := rows.Scan(&t.ID, &t.ItemID, &t.ItemName, &t.TransactionType, &t.Quantity,
			&t.ReferenceType, &referenceID, &notes, &t.CreatedAt); err != nil {
			h.writeDomainError(w, err)
			return
		}
		t.ReferenceID = int8Ptr(referenceID)
		t.Notes = textPtr(notes)
		items = append(items, t)
	}

	var total int64
	if err := h.DB.QueryRow(ctx,
		`select count(*) from inventory_transactions where ($1::bigint is null or item_id = $1)`,
		itemFilter).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"transactions": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}
