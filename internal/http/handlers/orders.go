package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/internal/utils"
	"thaniel-pos-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	orderReserved = "reserved"
	orderProcess  = "process"
	orderSettled  = "settled"
	orderCanceled = "canceled"
)

// orderTransitions is the order lifecycle: a reservation either moves to
// active processing or is canceled; a processing order settles on payment.
var orderTransitions = map[string][]string{
	orderReserved: {orderProcess, orderCanceled},
	orderProcess:  {orderSettled, orderCanceled},
}

func canTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// tableStatusFor maps an order status onto the table it occupies: a
// reservation holds the table, processing blocks it, and a finished order
// frees it.
func tableStatusFor(orderStatus string) string {
	switch orderStatus {
	case orderReserved:
		return tableReserved
	case orderProcess:
		return tableUnavailable
	default:
		return tableAvailable
	}
}

func newOrderCode(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
}

type order struct {
	ID           int64     `json:"id"`
	OrderCode    string    `json:"orderCode"`
	CustomerName string    `json:"customerName"`
	TableID      int64     `json:"tableId"`
	TableName    string    `json:"tableName"`
	Status       string    `json:"status"`
	PaymentToken *string   `json:"paymentToken"`
	CreatedAt    time.Time `json:"createdAt"`
}

type createOrderPayload struct {
	CustomerName string `json:"customerName"`
	TableID      int64  `json:"tableId"`
	Status       string `json:"status"`
}

func (h *Handler) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload createOrderPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(payload.CustomerName) == "" {
		fields["customerName"] = "Customer name is required"
	}
	if payload.TableID <= 0 {
		fields["tableId"] = "Select a table"
	}
	if payload.Status != orderReserved && payload.Status != orderProcess {
		fields["status"] = "Select a status"
	}
	if len(fields) > 0 {
		response.ValidationError(w, fields)
		return
	}

	code := newOrderCode(h.Config.OrderCodePrefix, time.Now())

	// Order insert and table hold commit together so a failed table update
	// cannot leave a dangling reservation.
	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		insert into orders (order_id, customer_name, table_id, status)
		values ($1, $2, $3, $4)
		returning id
	`, code, strings.TrimSpace(payload.CustomerName), payload.TableID, payload.Status).Scan(&id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	res, err := tx.Exec(ctx, `update tables set status = $1, updated_at = now() where id = $2`,
		tableStatusFor(payload.Status), payload.TableID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if res.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.publishEvent(ctx, queue.EventOrderCreated, queue.OrderEventPayload{
		OrderID:   id,
		OrderCode: code,
		Status:    payload.Status,
	})

	response.Created(w, map[string]any{"id": id, "orderCode": code})
}

func (h *Handler) OrdersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := readPageParams(r)
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	rows, err := h.DB.Query(ctx, `
		select o.id, o.order_id, o.customer_name, o.table_id, t.name, o.status, o.payment_token, o.created_at
		from orders o
		join tables t on t.id = o.table_id
		where ($1 = '' or o.status = $1)
		order by o.created_at desc
		limit $2 offset $3
	`, status, page.Limit, page.Offset)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer rows.Close()

	items := make([]order, 0)
	for rows.Next() {
		var (
			o            order
			paymentToken pgtype.Text
		)
		if err := rows.Scan(&o.ID, &o.OrderCode, &o.CustomerName, &o.TableID, &o.TableName,
			&o.Status, &paymentToken, &o.CreatedAt); err != nil {
			h.writeDomainError(w, err)
			return
		}
		o.PaymentToken = textPtr(paymentToken)
		items = append(items, o)
	}

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from orders where ($1 = '' or status = $1)`, status).Scan(&total); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"orders": items,
		"pagination": map[string]any{
			"page":  page.Page,
			"limit": page.Limit,
			"total": total,
		},
	})
}

type orderLineView struct {
	ID       int64   `json:"id"`
	MenuID   int64   `json:"menuId"`
	MenuName string  `json:"menuName"`
	Price    float64 `json:"price"`
	Quantity int32   `json:"quantity"`
	Notes    *string `json:"notes"`
	Status   string  `json:"status"`
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	var (
		o            order
		paymentToken pgtype.Text
	)
	err = h.DB.QueryRow(ctx, `
		select o.id, o.order_id, o.customer_name, o.table_id, t.name, o.status, o.payment_token, o.created_at
		from orders o
		join tables t on t.id = o.table_id
		where o.id = $1
	`, id).Scan(&o.ID, &o.OrderCode, &o.CustomerName, &o.TableID, &o.TableName,
		&o.Status, &paymentToken, &o.CreatedAt)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	o.PaymentToken = textPtr(paymentToken)

	lines, gross, err := h.orderLines(ctx, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"order":       o,
		"items":       lines,
		"grossAmount": gross,
	})
}

func (h *Handler) orderLines(ctx context.Context, orderID int64) ([]orderLineView, float64, error) {
	rows, err := h.DB.Query(ctx, `
		select om.id, om.menu_id, m.name, m.price, om.quantity, om.notes, om.status
		from orders_menus om
		join menus m on m.id = om.menu_id
		where om.order_id = $1
		order by om.id
	`, orderID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	lines := make([]orderLineView, 0)
	var gross float64
	for rows.Next() {
		var (
			line  orderLineView
			price pgtype.Numeric
			notes pgtype.Text
		)
		if err := rows.Scan(&line.ID, &line.MenuID, &line.MenuName, &price, &line.Quantity, &notes, &line.Status); err != nil {
			return nil, 0, err
		}
		line.Price = utils.NumericToFloat64(price)
		line.Notes = textPtr(notes)
		lines = append(lines, line)
		gross += line.Price * float64(line.Quantity)
	}
	return lines, gross, rows.Err()
}

type updateOrderStatusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) OrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	var payload updateOrderStatusPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	defer tx.Rollback(ctx)

	var (
		code    string
		tableID int64
		current string
	)
	err = tx.QueryRow(ctx, `select order_id, table_id, status from orders where id = $1 for update`, id).
		Scan(&code, &tableID, &current)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	if !canTransition(current, payload.Status) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION",
			fmt.Sprintf("Cannot move order from %s to %s", current, payload.Status))
		return
	}

	if _, err := tx.Exec(ctx, `update orders set status = $1, updated_at = now() where id = $2`, payload.Status, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if _, err := tx.Exec(ctx, `update tables set status = $1, updated_at = now() where id = $2`,
		tableStatusFor(payload.Status), tableID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.writeDomainError(w, err)
		return
	}

	switch payload.Status {
	case orderCanceled:
		h.publishEvent(ctx, queue.EventOrderCanceled, queue.OrderEventPayload{OrderID: id, OrderCode: code, Status: payload.Status})
	case orderSettled:
		h.publishEvent(ctx, queue.EventOrderSettled, queue.OrderEventPayload{OrderID: id, OrderCode: code, Status: payload.Status})
	}

	response.Success(w, map[string]any{"id": id, "status": payload.Status})
}
