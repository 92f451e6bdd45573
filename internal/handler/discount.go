package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shoplane/commerce-core/internal/domain/discount"
	"github.com/shoplane/commerce-core/internal/domain/money"
)

type addDiscountRequest struct {
	ProductID string    `json:"productId"`
	NewPrice  string    `json:"newPrice"`
	Currency  string    `json:"currency"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
}

type addDiscountResponse struct {
	ID string `json:"id"`
}

// addDiscount creates a product discount. The created discount's identifier
// is returned both in the body and in the Resource-ID header.
func (h *Handler) addDiscount(w http.ResponseWriter, r *http.Request) {
	var req addDiscountRequest
	if err := decodeBody(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.ProductID == "" {
		h.badRequest(w, "productId required")
		return
	}

	amount, err := decimal.NewFromString(req.NewPrice)
	if err != nil {
		h.badRequest(w, "newPrice must be a decimal string")
		return
	}
	price, err := money.New(amount, req.Currency)
	if err != nil {
		h.writeError(w, err)
		return
	}

	id, err := h.discounts.Add(r.Context(), discount.AddRequest{
		ProductID: req.ProductID,
		NewPrice:  price,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Resource-ID", id)
	h.writeJSON(w, http.StatusCreated, addDiscountResponse{ID: id})
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "discountID")

	if err := h.discounts.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
