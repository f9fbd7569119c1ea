package handlers

import (
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/pkg/response"
)

const (
	tableAvailable   = "available"
	tableReserved    = "reserved"
	tableUnavailable = "unavailable"
)

type diningTable struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Capacity  int32     `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type tablePayload struct {
	Name     string `json:"name"`
	Capacity int32  `json:"capacity"`
	Status   string `json:"status"`
}

func (p tablePayload) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Name is required"
	}
	if p.Capacity <= 0 {
		fields["capacity"] = "Capacity must be positive"
	}
	switch p.Status {
	case tableAvailable, tableReserved, tableUnavailable:
	default:
		fields["status"] = "Select a status"
	}
	return fields
}

func (h *Handler) TablesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)

	rows, err := h.DB.Query(ctx, `
		select id, name, capacity, status, created_at, updated_at
		from tables
		order by name
		limit $1 offset $2
	`, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]diningTable, 0)
	for rows.Next() {
		var t diningTable
		if err := rows.Scan(&t.ID, &t.Name, &t.Capacity, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			h.writeDomainError(w, err)
			return
		}
		items = append(items, t)
	}

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from tables`).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"tables": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

func (h *Handler) TablesCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload tablePayload
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
		insert into tables (name, capacity, status)
		values ($1, $2, $3)
		returning id
	`, strings.TrimSpace(payload.Name), payload.Capacity, payload.Status).Scan(&id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]any{"id": id})
}

func (h *Handler) TablesUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid table id")
		return
	}

	var payload tablePayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if fields := payload.validate(); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	res, err := h.DB.Exec(ctx, `
		update tables
		set name = $1, capacity = $2, status = $3, updated_at = now()
		where id = $4
	`, strings.TrimSpace(payload.Name), payload.Capacity, payload.Status, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

func (h *Handler) TablesDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid table id")
		return
	}

	res, err := h.DB.Exec(ctx, `delete from tables where id = $1`, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}
