package handlers

import (
	"net/http"

	"thaniel-pos-services/pkg/response"
)

type menuIngredient struct {
	ID             int64   `json:"id"`
	MenuID         int64   `json:"menuId"`
	MenuName       string  `json:"menuName"`
	ItemID         int64   `json:"itemId"`
	ItemName       string  `json:"itemName"`
	Unit           string  `json:"unit"`
	QuantityNeeded float64 `json:"quantityNeeded"`
}

type menuIngredientPayload struct {
	MenuID         int64   `json:"menuId"`
	ItemID         int64   `json:"itemId"`
	QuantityNeeded float64 `json:"quantityNeeded"`
}

func (p menuIngredientPayload) validate() map[string]string {
	fields := make(map[string]string)
	if p.MenuID <= 0 {
		fields["menuId"] = "Menu is required"
	}
	if p.ItemID <= 0 {
		fields["itemId"] = "Ingredient is required"
	}
	if p.QuantityNeeded <= 0 {
		fields["quantityNeeded"] = "Quantity must be positive"
	}
	return fields
}

func (h *Handler) MenuIngredientsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)

	rows, err := h.DB.Query(ctx, `
		select mi.id, mi.menu_id, m.name, mi.item_id, i.name, i.unit, mi.quantity_needed
		from menu_ingredients mi
		join menus m on m.id = mi.menu_id
		join inventory_items i on i.id = mi.item_id
		order by m.name, i.name
		limit $1 offset $2
	`, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]menuIngredient, 0)
	for rows.Next() {
		var mi menuIngredient
		if err := rows.Scan(&mi.ID, &mi.MenuID, &mi.MenuName, &mi.ItemID, &mi.ItemName, &mi.Unit, &mi.QuantityNeeded); err != nil {
			h.writeDomainError(w, err)
			return
		}
		items = append(items, mi)
	}

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from menu_ingredients`).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"ingredients": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

// MenuIngredientsForMenu returns one menu's recipe, resolved through the same
// path the order workflow uses.
func (h *Handler) MenuIngredientsForMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	menuID, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu id")
		return
	}

	recipe, err := h.Inventory.ResolveRecipe(ctx, menuID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{"menuId": menuID, "recipe": recipe})
}

func (h *Handler) MenuIngredientsCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload menuIngredientPayload
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
		insert into menu_ingredients (menu_id, item_id, quantity_needed)
		values ($1, $2, $3)
		returning id
	`, payload.MenuID, payload.ItemID, payload.QuantityNeeded).Scan(&id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]any{"id": id})
}

func (h *Handler) MenuIngredientsUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid ingredient id")
		return
	}

	var payload menuIngredientPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if fields := payload.validate(); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	res, err := h.DB.Exec(ctx, `
		update menu_ingredients
		set menu_id = $1, item_id = $2, quantity_needed = $3
		where id = $4
	`, payload.MenuID, payload.ItemID, payload.QuantityNeeded, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "INGREDIENT_NOT_FOUND", "Menu ingredient not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

func (h *Handler) MenuIngredientsDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid ingredient id")
		return
	}

	res, err := h.DB.Exec(ctx, `delete from menu_ingredients where id = $1`, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "INGREDIENT_NOT_FOUND", "Menu ingredient not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}
