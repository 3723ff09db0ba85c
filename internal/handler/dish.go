package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/feastkit/storefront/internal/domain/dish"
)

type dishResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	OriginalPrice string `json:"original_price,omitempty"`
	CategoryID    string `json:"category_id"`
	Image         string `json:"image,omitempty"`
	Description   string `json:"description,omitempty"`
}

func toDishResponse(d dish.Dish) dishResponse {
	resp := dishResponse{
		ID:          d.ID,
		Name:        d.Name,
		Price:       money(d.Price),
		CategoryID:  d.CategoryID,
		Image:       d.Image,
		Description: d.Description,
	}
	if d.OriginalPrice.IsPositive() {
		resp.OriginalPrice = money(d.OriginalPrice)
	}
	return resp
}

// listDishes returns the full menu catalog.
func (h *Handler) listDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := h.dishes.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list dishes", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		out[i] = toDishResponse(d)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"dishes": out})
}
