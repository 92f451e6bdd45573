package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shoplane/commerce-core/internal/domain/cart"
	"github.com/shoplane/commerce-core/internal/domain/order"
)

type shipmentDTO struct {
	FullName   string `json:"fullName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (s shipmentDTO) toDomain() cart.Shipment {
	return cart.Shipment{
		FullName:   s.FullName,
		Street:     s.Street,
		City:       s.City,
		PostalCode: s.PostalCode,
		Country:    s.Country,
	}
}

type checkoutRequest struct {
	UserID   string      `json:"userId"`
	Shipment shipmentDTO `json:"shipment"`
	Payment  string      `json:"payment"`
}

type orderResponse struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	Lines          []order.OrderLine `json:"lines"`
	Shipment       shipmentDTO       `json:"shipment"`
	Payment        string            `json:"payment"`
	PlaceDate      time.Time         `json:"placeDate"`
	Status         string            `json:"status"`
	CompletionDate *time.Time        `json:"completionDate,omitempty"`
	Total          string            `json:"total"`
}

func toOrderResponse(o *order.Order) orderResponse {
	s := o.Shipment()
	return orderResponse{
		ID:     o.ID(),
		UserID: o.UserID(),
		Lines:  o.Lines(),
		Shipment: shipmentDTO{
			FullName:   s.FullName,
			Street:     s.Street,
			City:       s.City,
			PostalCode: s.PostalCode,
			Country:    s.Country,
		},
		Payment:        string(o.Payment()),
		PlaceDate:      o.PlaceDate(),
		Status:         o.Status().String(),
		CompletionDate: o.CompletionDate(),
		Total:          o.Total().String(),
	}
}

// checkout converts the user's cart into an order and returns the priced
// result.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeBody(r, &req); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if req.UserID == "" {
		h.badRequest(w, "userId required")
		return
	}

	o, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		UserID:   req.UserID,
		Shipment: req.Shipment.toDomain(),
		Payment:  cart.PaymentMethod(req.Payment),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Resource-ID", o.ID())
	h.writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) startProcessing(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.StartProcessing)
}

func (h *Handler) sendOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Send)
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Complete)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orders.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, orderID string) error) {
	id := chi.URLParam(r, "orderID")

	if err := apply(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
