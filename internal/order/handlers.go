package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/SnigdhoNext27/bliss-store-api/internal/common"
	"github.com/SnigdhoNext27/bliss-store-api/internal/events"
)

// Handler exposes read and cancel access to orders placed by a guest
// session. Get and Cancel require the caller's anonId and treat a mismatch
// as not found, so order ids alone reveal nothing.
type Handler struct {
	Store  Store
	Events *events.Bus
	Log    zerolog.Logger
}

// requireOwnedOrder loads the order and verifies the anonId query parameter
// matches. Writes the error response and returns false when it does not.
func (h *Handler) requireOwnedOrder(w http.ResponseWriter, r *http.Request) (Order, []Item, bool) {
	anonID := strings.TrimSpace(r.URL.Query().Get("anonId"))
	if anonID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "anonId query parameter is required", nil)
		return Order{}, nil, false
	}
	o, items, err := h.Store.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return Order{}, nil, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order lookup failed", nil)
		return Order{}, nil, false
	}
	if o.AnonID != anonID {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return Order{}, nil, false
	}
	return o, items, true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	anonID := strings.TrimSpace(r.URL.Query().Get("anonId"))
	if anonID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "anonId query parameter is required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	total, err := h.Store.CountByAnon(r.Context(), anonID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Store.ListByAnon(r.Context(), anonID, perPage, (page-1)*perPage)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		response = append(response, orderView(o))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	o, items, ok := h.requireOwnedOrder(w, r)
	if !ok {
		return
	}
	view := orderView(o)
	lineViews := make([]map[string]any, 0, len(items))
	for _, it := range items {
		lineViews = append(lineViews, map[string]any{
			"id":           it.ID,
			"productId":    it.ProductID,
			"qty":          it.Qty,
			"size":         it.Size,
			"color":        it.Color,
			"storedPrice":  it.StoredPrice,
			"livePrice":    it.LivePrice,
			"priceChanged": it.PriceChanged,
			"lineTotal":    it.LineTotal,
		})
	}
	view["items"] = lineViews
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	o, _, ok := h.requireOwnedOrder(w, r)
	if !ok {
		return
	}
	if o.Status != StatusConfirmed {
		common.JSONError(w, http.StatusBadRequest, "INVALID_STATE", "only confirmed orders can be canceled", nil)
		return
	}
	if err := h.Store.UpdateStatus(r.Context(), o.ID, StatusCanceled); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to cancel order", nil)
		return
	}
	if h.Events != nil {
		payload := map[string]any{"orderId": o.ID, "anonId": o.AnonID}
		if _, err := h.Events.Emit(r.Context(), events.TopicOrderCanceled, o.ID, payload); err != nil {
			h.Log.Error().Err(err).Str("order_id", o.ID).Msg("emit order canceled event")
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"status": StatusCanceled}})
}

func orderView(o Order) map[string]any {
	return map[string]any{
		"id":              o.ID,
		"status":          o.Status,
		"zone":            o.Zone,
		"giftWrap":        o.GiftWrap,
		"subtotal":        o.Subtotal,
		"bulkDiscount":    o.BulkDiscount,
		"loyaltyDiscount": o.LoyaltyDiscount,
		"pointsApplied":   o.PointsApplied,
		"deliveryFee":     o.DeliveryFee,
		"giftWrapFee":     o.GiftWrapFee,
		"totalPayable":    o.TotalPayable,
		"createdAt":       o.CreatedAt,
	}
}
