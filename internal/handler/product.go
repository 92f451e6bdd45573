package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

type productResponse struct {
	ID              string       `json:"id"`
	SKU             string       `json:"sku"`
	Name            string       `json:"name"`
	Manufacturer    string       `json:"manufacturer,omitempty"`
	Description     string       `json:"description,omitempty"`
	Category        string       `json:"category,omitempty"`
	StandardPrice   money.Price  `json:"standardPrice"`
	DiscountedPrice *money.Price `json:"discountedPrice,omitempty"`
	ImageURL        string       `json:"imageUrl,omitempty"`
	IsAvailable     bool         `json:"isAvailable"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Manufacturer:    p.Manufacturer,
		Description:     p.Description,
		Category:        p.Category,
		StandardPrice:   p.StandardPrice,
		DiscountedPrice: p.DiscountedPrice,
		ImageURL:        p.ImageURL,
		IsAvailable:     p.IsAvailable,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toProductResponse(*p))
}
