package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

const maxRequestBodySize = 1 << 20

type OrdersHandler struct {
	checkout    CheckoutService
	orders      OrderReader
	payments    PaymentSettler
	fulfillment Fulfillment
	timeout     time.Duration
}

func NewOrdersHandler(checkout CheckoutService, orders OrderReader, payments PaymentSettler, fulfillment Fulfillment, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		checkout:    checkout,
		orders:      orders,
		payments:    payments,
		fulfillment: fulfillment,
		timeout:     timeout,
	}
}

type PayRequestDTO struct {
	Method domain.PaymentMethod `json:"method"`
}

type ShipRequestDTO struct {
	TrackingNumber string `json:"tracking_number"`
}

// POST /api/v1/checkout
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, _ := principalFromContext(r.Context())

	var req domain.CheckoutRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.BuyerID = p.ID

	order, err := h.checkout.Checkout(ctx, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, order)
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, _ := principalFromContext(r.Context())
	orders, err := h.orders.ListOrdersForBuyer(ctx, p.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(orders))
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	p, _ := principalFromContext(r.Context())

	order, err := h.orders.GetOrderForBuyer(ctx, orderID, p.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// POST /api/v1/orders/{order_id}/pay
func (h *OrdersHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	var req PayRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	p, _ := principalFromContext(r.Context())

	order, err := h.payments.SettlePayment(ctx, orderID, p.ID, req.Method)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// POST /api/v1/orders/{order_id}/complete
func (h *OrdersHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	h.buyerTransition(w, r, h.fulfillment.Complete)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOwn(w http.ResponseWriter, r *http.Request) {
	h.buyerTransition(w, r, h.fulfillment.Cancel)
}

func (h *OrdersHandler) buyerTransition(w http.ResponseWriter, r *http.Request,
	apply func(context.Context, uuid.UUID, domain.Actor) (*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	p, _ := principalFromContext(r.Context())

	order, err := apply(ctx, orderID, domain.Buyer(p.ID))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// GET /api/v1/seller/orders
func (h *OrdersHandler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, _ := principalFromContext(r.Context())
	orders, err := h.orders.ListOrdersForSeller(ctx, p.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, nonNil(orders))
}

// POST /api/v1/seller/orders/{order_id}/accept
func (h *OrdersHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.sellerTransition(w, r, func(ctx context.Context, id uuid.UUID, sellerID string) (*domain.Order, error) {
		return h.fulfillment.Accept(ctx, id, sellerID)
	})
}

// POST /api/v1/seller/orders/{order_id}/ship
func (h *OrdersHandler) Ship(w http.ResponseWriter, r *http.Request) {
	var req ShipRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	h.sellerTransition(w, r, func(ctx context.Context, id uuid.UUID, sellerID string) (*domain.Order, error) {
		return h.fulfillment.Ship(ctx, id, sellerID, req.TrackingNumber)
	})
}

// POST /api/v1/seller/orders/{order_id}/complete
func (h *OrdersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.sellerTransition(w, r, func(ctx context.Context, id uuid.UUID, sellerID string) (*domain.Order, error) {
		return h.fulfillment.Complete(ctx, id, domain.Seller(sellerID))
	})
}

// POST /api/v1/seller/orders/{order_id}/cancel
func (h *OrdersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.sellerTransition(w, r, func(ctx context.Context, id uuid.UUID, sellerID string) (*domain.Order, error) {
		return h.fulfillment.Cancel(ctx, id, domain.Seller(sellerID))
	})
}

func (h *OrdersHandler) sellerTransition(w http.ResponseWriter, r *http.Request,
	apply func(context.Context, uuid.UUID, string) (*domain.Order, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}
	p, _ := principalFromContext(r.Context())

	order, err := apply(ctx, orderID, p.ID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "order_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "order_id must be a UUID", Code: "invalid_order_id", Details: "order_id"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil(orders []*domain.Order) []*domain.Order {
	if orders == nil {
		return []*domain.Order{}
	}
	return orders
}
