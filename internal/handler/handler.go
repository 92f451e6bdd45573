// Package handler exposes the HTTP API: discount administration, cart
// manipulation, checkout and the order lifecycle. Routing is chi; request
// and response bodies are plain JSON DTOs mapped to and from the domain
// types.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/discount"
	"github.com/shoplane/commerce-core/internal/domain/money"
	"github.com/shoplane/commerce-core/internal/domain/order"
	"github.com/shoplane/commerce-core/internal/domain/product"
)

// Handler holds the domain services behind the HTTP API.
type Handler struct {
	products  product.Repository
	discounts *discount.Service
	carts     *cart.Service
	orders    *order.Service
	lg        *zap.Logger
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	discounts *discount.Service,
	carts *cart.Service,
	orders *order.Service,
	lg *zap.Logger,
) *Handler {
	return &Handler{
		products:  products,
		discounts: discounts,
		carts:     carts,
		orders:    orders,
		lg:        lg,
	}
}

// Routes mounts all API endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{productID}", h.getProduct)

		r.Post("/discounts", h.addDiscount)
		r.Delete("/discounts/{discountID}", h.deleteDiscount)

		r.Route("/carts/{userID}", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Post("/items", h.addCartItem)
			r.Delete("/items/{productID}", h.removeCartItem)
			r.Post("/discount", h.attachCartDiscount)
			r.Delete("/discount", h.clearCartDiscount)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/checkout", h.checkout)
			r.Get("/{orderID}", h.getOrder)
			r.Post("/{orderID}/start-processing", h.startProcessing)
			r.Post("/{orderID}/send", h.sendOrder)
			r.Post("/{orderID}/complete", h.completeOrder)
			r.Post("/{orderID}/cancel", h.cancelOrder)
		})
	})

	return r
}

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.lg.Error("encode response", zap.Error(err))
	}
}

// writeError maps domain errors onto HTTP status codes: missing resources
// are 404, rule violations on the request are 400, conflicts with current
// state are 409, everything else is a logged 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var statusErr *order.InvalidStatusChangeError
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, discount.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, discount.ErrConflict),
		errors.As(err, &statusErr):
		status = http.StatusConflict
	case errors.Is(err, discount.ErrInvalidDate),
		errors.Is(err, product.ErrDiscountedPriceTooHigh),
		errors.Is(err, cart.ErrQuantityTooLow),
		errors.Is(err, cart.ErrDiscountExpired),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrNoShipment),
		errors.Is(err, cart.ErrInvalidPayment),
		errors.Is(err, cart.ErrMissingProduct),
		errors.Is(err, money.ErrNegativeAmount),
		errors.Is(err, money.ErrCurrencyMismatch),
		errors.Is(err, money.ErrInvalidPercent):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.lg.Error("request failed", zap.Error(err))
		h.writeJSON(w, status, errorResponse{Code: status, Message: "internal error"})
		return
	}
	h.writeJSON(w, status, errorResponse{Code: status, Message: err.Error()})
}

func (h *Handler) badRequest(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
