package handlers

import (
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   *string   `json:"contact"`
	Email     *string   `json:"email"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type supplierPayload struct {
	Name    string  `json:"name"`
	Contact *string `json:"contact"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

func (p supplierPayload) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Name is required"
	}
	if p.Email != nil && *p.Email != "" && !strings.Contains(*p.Email, "@") {
		fields["email"] = "Invalid email"
	}
	return fields
}

func (h *Handler) SuppliersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)
	search := "%" + readSearchParam(r) + "%"

	rows, err := h.DB.Query(ctx, `
		select id, name, contact, email, address, created_at, updated_at
		from suppliers
		where name ilike $1
		order by name
		limit $2 offset $3
	`, search, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]supplier, 0)
	for rows.Next() {
		var (
			s       supplier
			contact pgtype.Text
			email   pgtype.Text
			address pgtype.Text
		)
		if err := rows.Scan(&s.ID, &s.Name, &contact, &email, &address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			h.writeDomainError(w, err)
			return
		}
		s.Contact = textPtr(contact)
		s.Email = textPtr(email)
		s.Address = textPtr(address)
		items = append(items, s)
	}

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from suppliers where name ilike $1`, search).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"suppliers": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

func (h *Handler) SuppliersCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload supplierPayload
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
		insert into suppliers (name, contact, email, address)
		values ($1, $2, $3, $4)
		returning id
	`, strings.TrimSpace(payload.Name), payload.Contact, payload.Email, payload.Address).Scan(&id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Created(w, map[string]any{"id": id})
}

func (h *Handler) SuppliersUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid supplier id")
		return
	}

	var payload supplierPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	if fields := payload.validate(); len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	res, err := h.DB.Exec(ctx, `
		update suppliers
		set name = $1, contact = $2, email = $3, address = $4, updated_at = now()
		where id = $5
	`, strings.TrimSpace(payload.Name), payload.Contact, payload.Email, payload.Address, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "SUPPLIER_NOT_FOUND", "Supplier not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}

func (h *Handler) SuppliersDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid supplier id")
		return
	}

	res, err := h.DB.Exec(ctx, `delete from suppliers where id = $1`, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "SUPPLIER_NOT_FOUND", "Supplier not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}
