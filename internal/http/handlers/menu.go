package handlers

import (
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/internal/utils"
	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

var menuCategories = map[string]bool{
	"coffee":     true,
	"patisserie": true,
	"meals":      true,
}

type menu struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type menuPayload struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	IsAvailable bool    `json:"isAvailable"`
}

func (p menuPayload) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Name is required"
	}
	if !menuCategories[p.Category] {
		fields["category"] = "Select a category"
	}
	if p.Price < 0 {
		fields["price"] = "Price cannot be negative"
	}
	return fields
}

func (h *Handler) MenuList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)
	search := "%" + readSearchParam(r) + "%"

	rows, err := h.DB.Query(ctx, `
		select id, name, category, price, description, image_url, is_available, created_at, updated_at
		from menus
		where name ilike $1
		order by name
		limit $2 offset $3
	`, search, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]menu, 0)
	for rows.Next() {
		var (
			m           menu
			price       pgtype.Numeric
			description pgtype.Text
			imageURL    pgtype.Text
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Category, &price, &description, &imageURL,
			&m.IsAvailable, &m.CreatedAt, &m.UpdatedAt); err != nil {
			h.writeDomainError(w, err)
			return
		}
		m.Price = utils.NumericToFloat64(price)
		m.Description = textPtr(description)
		m.ImageURL = textPtr(imageURL)
		items = append(items, m)
	}

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from menus where name ilike $1`, search).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"menus": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

func (h *Handler) MenuCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload menuPayload
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
		insert into menus (name, category, price, description, image_url, is_available)
		values ($1, $2, $3, $4, $5, $6)
		returning id
	`, strings.TrimSpace(payload.Name), payload.Category, payload.Price,
		payload.Description, payload.ImageURL, payload.IsAvailable).Scan(&id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]any{"id": id})
}

func (h *Handler) MenuUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu id")
		return
	}

	var payload menuPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if fields := payload.validate(); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	res, err := h.DB.Exec(ctx, `
		update menus
		set name = $1, category = $2, price = $3, description = $4,
			image_url = $5, is_available = $6, updated_at = now()
		where id = $7
	`, strings.TrimSpace(payload.Name), payload.Category, payload.Price,
		payload.Description, payload.ImageURL, payload.IsAvailable, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

func (h *Handler) MenuDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu id")
		return
	}

	res, err := h.DB.Exec(ctx, `delete from menus where id = $1`, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

func (h *Handler) MenuToggleAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid menu id")
		return
	}

	var isAvailable bool
	err = h.DB.QueryRow(ctx, `
		update menus
		set is_available = not is_available, updated_at = now()
		where id = $1
		returning is_available
	`, id).Scan(&isAvailable)
	if err != nil {
		response.Error(w, http.StatusNotFound, "MENU_NOT_FOUND", "Menu not found")
		return
	}

	response.Success(w, map[string]any{"id": id, "isAvailable": isAvailable})
}
