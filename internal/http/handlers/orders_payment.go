package handlers

import (
	"net/http"

	"thaniel-pos-services/internal/payment"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/pkg/response"

	"go.uber.org/zap"
)

// OrderGeneratePayment tokenizes the order's current total with the payment
// gateway and stores the token on the order. An order keeps a single token;
// regenerating replaces it.
func (h *Handler) OrderGeneratePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Payments == nil {
		response.Error(w, http.StatusServiceUnavailable, "PAYMENTS_DISABLED", "Payment gateway is not configured")
		return
	}

	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
		return
	}

	var (
		code         string
		customerName string
		status       string
	)
	err = h.DB.QueryRow(ctx, `select order_id, customer_name, status from orders where id = $1`, id).
		Scan(&code, &customerName, &status)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if status == orderSettled || status == orderCanceled {
		response.Error(w, http.StatusConflict, "ORDER_CLOSED", "Order is already closed")
		return
	}

	_, gross, err := h.orderLines(ctx, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if gross <= 0 {
		response.Error(w, http.StatusConflict, "ORDER_EMPTY", "Order has no items to pay for")
		return
	}

	tx, err := h.Payments.CreateTransaction(ctx, payment.TransactionRequest{
		OrderCode:    code,
		GrossAmount:  gross,
		CustomerName: customerName,
	})
	if err != nil {
		h.Logger.Error("payment token request failed", zap.String("order_code", code), zap.Error(err))
		response.Error(w, http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", "Could not create payment transaction")
		return
	}

	if _, err := h.DB.Exec(ctx, `update orders set payment_token = $1, updated_at = now() where id = $2`, tx.Token, id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"orderId":     id,
		"orderCode":   code,
		"token":       tx.Token,
		"redirectUrl": tx.RedirectURL,
		"grossAmount": gross,
	})
}

// OrderConfirmPayment settles a paid order and frees its table.
func (h *Handler) OrderConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_ID", "Invalid order id")
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
	if !canTransition(current, orderSettled) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Order cannot be settled from its current status")
		return
	}

	if _, err := tx.Exec(ctx, `update orders set status = $1, updated_at = now() where id = $2`, orderSettled, id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if _, err := tx.Exec(ctx, `update tables set status = $1, updated_at = now() where id = $2`, tableAvailable, tableID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.publishEvent(ctx, queue.EventOrderSettled, queue.OrderEventPayload{OrderID: id, OrderCode: code, Status: orderSettled})

	response.Success(w, map[string]any{"id": id, "status": orderSettled})
}
