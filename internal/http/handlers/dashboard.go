package handlers

import (
	"net/http"
	"time"

	"thaniel-pos-services/internal/utils"
	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

// DashboardSummary aggregates the day at a glance: order counts by status,
// settled revenue, table occupancy, and how many items sit at or under their
// minimum stock.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ordersByStatus := make(map[string]int64)
	rows, err := h.DB.Query(ctx, `
		select status, count(*)
		from orders
		where created_at >= date_trunc('day', now())
		group by status
	`)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			h.writeDomainError(w, err)
			return
		}
		ordersByStatus[status] = count
	}
	rows.Close()

	var revenue pgtype.Numeric
	err = h.DB.QueryRow(ctx, `
		select coalesce(sum(m.price * om.quantity), 0)
		from orders o
		join orders_menus om on om.order_id = o.id
		join menus m on m.id = om.menu_id
		where o.status = 'settled' and o.created_at >= date_trunc('day', now())
	`).Scan(&revenue)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var occupiedTables, totalTables int64
	err = h.DB.QueryRow(ctx,
		`select count(*) filter (where status <> 'available'), count(*) from tables`).
		Scan(&occupiedTables, &totalTables)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var lowStockCount int64
	err = h.DB.QueryRow(ctx,
		`select count(*) from inventory_items where current_stock <= minimum_stock`).
		Scan(&lowStockCount)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"ordersByStatus": ordersByStatus,
		"revenueToday":   utils.NumericToFloat64(revenue),
		"tables": map[string]any{
			"occupied": occupiedTables,
			"total":    totalTables,
		},
		"lowStockCount": lowStockCount,
	})
}

type stockCategoryReport struct {
	Category   string  `json:"category"`
	ItemCount  int64   `json:"itemCount"`
	StockValue float64 `json:"stockValue"`
	LowCount   int64   `json:"lowCount"`
}

// DashboardStockReport groups the inventory by category with on-hand value at
// current unit price.
func (h *Handler) DashboardStockReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select category, count(*),
			coalesce(sum(current_stock * unit_price), 0),
			count(*) filter (where current_stock <= minimum_stock)
		from inventory_items
		group by category
		order by category
	`)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	report := make([]stockCategoryReport, 0)
	for rows.Next() {
		var (
			row   stockCategoryReport
			value pgtype.Numeric
		)
		if err := rows.Scan(&row.Category, &row.ItemCount, &value, &row.LowCount); err != nil {
			h.writeDomainError(w, err)
			return
		}
		row.StockValue = utils.NumericToFloat64(value)
		report = append(report, row)
	}

	response.Success(w, map[string]any{"categories": report})
}

type notification struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) NotificationsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)
	unreadOnly := r.URL.Query().Get("unread") == "true"

	rows, err := h.DB.Query(ctx, `
		select id, category, title, message, is_read, created_at
		from notifications
		where ($1 = false or is_read = false)
		order by created_at desc, id desc
		limit $2 offset $3
	`, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]notification, 0)
	for rows.Next() {
		var n notification
		if err := rows.Scan(&n.ID, &n.Category, &n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			h.writeDomainError(w, err)
			return
		}
		items = append(items, n)
	}

	var total int64
	if err := h.DB.QueryRow(ctx,
		`select count(*) from notifications where ($1 = false or is_read = false)`,
		unreadOnly).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"notifications": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

func (h *Handler) NotificationsMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid notification id")
		return
	}

	res, err := h.DB.Exec(ctx, `update notifications set is_read = true where id = $1`, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
		return
	}

	response.Success(w, map[string]any{"id": id})
}
