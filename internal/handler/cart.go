package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shoplane/commerce-core/internal/domain/cart"
)

type cartItemResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartDiscountResponse struct {
	DiscountID string   `json:"discountId,omitempty"`
	Type       string   `json:"type"`
	Percentage string   `json:"percentage"`
	ProductIDs []string `json:"productIds,omitempty"`
}

type cartResponse struct {
	UserID   string                `json:"userId"`
	Items    []cartItemResponse    `json:"items"`
	Discount *cartDiscountResponse `json:"discount,omitempty"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	items := make([]cartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = cartItemResponse{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	resp := cartResponse{UserID: c.UserID, Items: items}
	if c.Discount != nil {
		resp.Discount = &cartDiscountResponse{
			DiscountID: c.Discount.DiscountID,
			Type:       string(c.Discount.Type),
			Percentage: c.Discount.Percentage.String(),
			ProductIDs: c.Discount.ProductIDs,
		}
	}
	return resp
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCartResponse(c))
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req addCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.ProductID == "" {
		h.badRequest(w, "productId required")
		return
	}

	if err := h.carts.AddProduct(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	productID := chi.URLParam(r, "productID")

	if err := h.carts.RemoveProduct(r.Context(), userID, productID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attachDiscountRequest struct {
	// DiscountID attaches an existing product discount. Mutually exclusive
	// with Percentage.
	DiscountID string `json:"discountId,omitempty"`
	// Percentage attaches a cart-wide discount of the given percentage.
	Percentage string `json:"percentage,omitempty"`
}

func (h *Handler) attachCartDiscount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req attachDiscountRequest
	if err := decodeBody(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	switch {
	case req.DiscountID != "" && req.Percentage != "":
		h.badRequest(w, "discountId and percentage are mutually exclusive")
		return
	case req.DiscountID != "":
		if err := h.carts.AttachProductDiscount(r.Context(), userID, req.DiscountID); err != nil {
			h.writeError(w, err)
			return
		}
	case req.Percentage != "":
		percentage, err := decimal.NewFromString(req.Percentage)
		if err != nil {
			h.badRequest(w, "percentage must be a decimal string")
			return
		}
		if err := h.carts.AttachCartDiscount(r.Context(), userID, percentage); err != nil {
			h.writeError(w, err)
			return
		}
	default:
		h.badRequest(w, "discountId or percentage required")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCartDiscount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := h.carts.ClearDiscount(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
