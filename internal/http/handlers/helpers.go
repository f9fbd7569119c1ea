package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"thaniel-pos-services/internal/inventory"
	"thaniel-pos-services/internal/queue"
	"thaniel-pos-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

type pageParams struct {
	Limit  int
	Offset int
	Page   int
}

func readPageParams(r *http.Request) pageParams {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return pageParams{Limit: limit, Offset: (page - 1) * limit, Page: page}
}

func readSearchParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("search"))
}

// writeDomainError maps workflow errors onto the response envelope. Domain
// errors keep their message verbatim so the form banner shows exactly what
// went wrong; anything else is an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *inventory.InsufficientStockError
	var missing *inventory.MissingIngredientError

	switch {
	case errors.Is(err, inventory.ErrOrderNotFound):
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.As(err, &insufficient):
		response.Error(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.As(err, &missing):
		response.Error(w, http.StatusConflict, "INGREDIENT_NOT_FOUND", err.Error())
	default:
		h.Logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// publishEvent is fire-and-forget: queue trouble never fails the request.
func (h *Handler) publishEvent(ctx context.Context, eventType string, payload any) {
	if h.Queue == nil {
		return
	}
	if err := queue.PublishEvent(ctx, h.Queue, eventType, payload); err != nil {
		h.Logger.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}
