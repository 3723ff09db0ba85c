// Package handler exposes the storefront HTTP API: menu catalog, coupon
// listings with display copy, and cart eligibility/quote endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feastkit/storefront/internal/domain/cart"
	"github.com/feastkit/storefront/internal/domain/coupon"
	"github.com/feastkit/storefront/internal/domain/dish"
)

// Handler serves the storefront API, delegating to the domain repositories
// and the coupon eligibility engine.
type Handler struct {
	dishes  dish.Repository
	coupons coupon.Repository
	engine  *coupon.Engine
}

// New constructs a Handler with the required domain dependencies.
func New(dishes dish.Repository, coupons coupon.Repository, engine *coupon.Engine) *Handler {
	return &Handler{
		dishes:  dishes,
		coupons: coupons,
		engine:  engine,
	}
}

// Routes builds the chi router for the API.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/dishes", h.listDishes)
	r.Get("/users/{userID}/coupons", h.listCoupons)
	r.Post("/users/{userID}/coupons/evaluate", h.evaluateCoupons)
	r.Post("/cart/quote", h.quoteCart)
	return r
}

// cartLinePayload is the wire form of one cart line.
type cartLinePayload struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	CategoryID string            `json:"category_id,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
}

func (p cartLinePayload) toDomain() cart.Line {
	return cart.Line{
		ID:         p.ID,
		Name:       p.Name,
		UnitPrice:  p.UnitPrice,
		Quantity:   p.Quantity,
		CategoryID: p.CategoryID,
		Options:    p.Options,
	}
}

// decodeCart parses and validates cart lines from a request payload.
func decodeCart(payload []cartLinePayload) ([]cart.Line, string) {
	lines := make([]cart.Line, len(payload))
	for i, p := range payload {
		if p.ID == "" {
			return nil, "cart line id required"
		}
		if p.Quantity <= 0 {
			return nil, "quantity must be greater than 0 for dish " + p.ID
		}
		lines[i] = p.toDomain()
	}
	return lines, ""
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Code: status, Message: message})
}

// money formats a monetary amount for the wire with display rounding.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
