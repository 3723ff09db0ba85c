package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feastkit/storefront/internal/domain/cart"
	"github.com/feastkit/storefront/internal/domain/coupon"
)

type displayRuleResponse struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type couponResponse struct {
	ID        string                `json:"id"`
	Status    string                `json:"status"`
	ExpiresAt time.Time             `json:"expires_at"`
	MainTitle string                `json:"main_title"`
	Subtitle  string                `json:"subtitle"`
	Rules     []displayRuleResponse `json:"rules"`
}

func toCouponResponse(c coupon.Coupon) couponResponse {
	info := coupon.RenderDisplay(c)
	rules := make([]displayRuleResponse, len(info.Rules))
	for i, rule := range info.Rules {
		rules[i] = displayRuleResponse{Type: rule.Type, Text: rule.Text}
	}
	return couponResponse{
		ID:        c.ID,
		Status:    string(c.Status),
		ExpiresAt: c.ExpiresAt,
		MainTitle: info.MainTitle,
		Subtitle:  info.Subtitle,
		Rules:     rules,
	}
}

// listCoupons returns the user's coupons with their display copy.
func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	coupons, err := h.coupons.ListForUser(r.Context(), userID)
	if err != nil {
		zctx.From(r.Context()).Error("list coupons", zap.String("user_id", userID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]couponResponse, len(coupons))
	for i, c := range coupons {
		out[i] = toCouponResponse(c)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"coupons": out})
}

type evaluateRequest struct {
	Cart []cartLinePayload `json:"cart"`
}

type lineBindingResponse struct {
	Index    int    `json:"index"`
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
}

type evaluatedCouponResponse struct {
	couponResponse
	Savings string               `json:"savings"`
	Reason  string               `json:"reason,omitempty"`
	Line    *lineBindingResponse `json:"line,omitempty"`
}

func toEvaluatedResponse(ev coupon.Evaluated) evaluatedCouponResponse {
	resp := evaluatedCouponResponse{
		couponResponse: toCouponResponse(ev.Coupon),
		Savings:        money(ev.Result.Savings),
		Reason:         ev.Result.Reason,
	}
	if b := ev.Result.Line; b != nil {
		resp.Line = &lineBindingResponse{Index: b.Index, ItemID: b.ItemID, ItemName: b.ItemName}
	}
	return resp
}

// evaluateCoupons checks every coupon of the user against the submitted cart
// and partitions them into available and unavailable lists.
func (h *Handler) evaluateCoupons(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	lines, msg := decodeCart(req.Cart)
	if msg != "" {
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}

	coupons, err := h.coupons.ListForUser(r.Context(), userID)
	if err != nil {
		zctx.From(r.Context()).Error("list coupons", zap.String("user_id", userID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	evaluated, err := h.engine.EvaluateAll(r.Context(), coupons, lines)
	if err != nil {
		zctx.From(r.Context()).Error("evaluate coupons", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	available := make([]evaluatedCouponResponse, 0, len(evaluated))
	unavailable := make([]evaluatedCouponResponse, 0)
	for _, ev := range evaluated {
		if ev.Result.Eligible {
			available = append(available, toEvaluatedResponse(ev))
		} else {
			unavailable = append(unavailable, toEvaluatedResponse(ev))
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"available":   available,
		"unavailable": unavailable,
	})
}

type quoteRequest struct {
	Cart     []cartLinePayload `json:"cart"`
	CouponID string            `json:"coupon_id"`
}

type quoteResponse struct {
	Subtotal string               `json:"subtotal"`
	Savings  string               `json:"savings"`
	Total    string               `json:"total"`
	Eligible bool                 `json:"eligible"`
	Reason   string               `json:"reason,omitempty"`
	Line     *lineBindingResponse `json:"line,omitempty"`
}

// quoteCart computes the cart's final total, applying the selected coupon
// when one is provided and eligible.
func (h *Handler) quoteCart(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Cart) == 0 {
		writeError(w, r, http.StatusBadRequest, "cart required")
		return
	}
	lines, msg := decodeCart(req.Cart)
	if msg != "" {
		writeError(w, r, http.StatusUnprocessableEntity, msg)
		return
	}

	subtotal := cart.Subtotal(lines)
	resp := quoteResponse{
		Subtotal: money(subtotal),
		Savings:  money(decimal.Zero),
		Total:    money(subtotal),
	}

	if req.CouponID != "" {
		c, err := h.coupons.GetByID(r.Context(), req.CouponID)
		if err != nil {
			if errors.Is(err, coupon.ErrNotFound) {
				writeError(w, r, http.StatusUnprocessableEntity, "coupon not found")
				return
			}
			zctx.From(r.Context()).Error("get coupon", zap.String("coupon_id", req.CouponID), zap.Error(err))
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}

		result := h.engine.Evaluate(*c, lines)
		resp.Eligible = result.Eligible
		resp.Reason = result.Reason
		if result.Eligible {
			total := subtotal.Sub(result.Savings)
			if total.IsNegative() {
				total = decimal.Zero
			}
			resp.Savings = money(result.Savings)
			resp.Total = money(total)
			if b := result.Line; b != nil {
				resp.Line = &lineBindingResponse{Index: b.Index, ItemID: b.ItemID, ItemName: b.ItemName}
			}
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}
