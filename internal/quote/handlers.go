package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/SnigdhoNext27/bliss-store-api/internal/cart"
	"github.com/SnigdhoNext27/bliss-store-api/internal/catalog"
	"github.com/SnigdhoNext27/bliss-store-api/internal/common"
	"github.com/SnigdhoNext27/bliss-store-api/internal/pricing"
)

// Handler exposes quote computation over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Create handles POST /carts/{id}/quote.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
	}
	res, err := h.Svc.Quote(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeQuoteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res})
}

func writeQuoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
	case errors.Is(err, pricing.ErrCannotCompute):
		common.JSONError(w, http.StatusUnprocessableEntity, "CANNOT_COMPUTE", "totals cannot be computed for this cart", nil)
	case errors.Is(err, catalog.ErrUnreachable):
		// The client treats this as a transient loading state and retries.
		common.JSONError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "live prices are temporarily unavailable", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
