package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cart    CartService
	timeout time.Duration
}

func NewCartHandler(cart CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, _ := principalFromContext(r.Context())
	h.respondCart(ctx, w, r, p.ID, http.StatusOK)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	p, _ := principalFromContext(r.Context())

	if err := h.cart.AddItem(ctx, p.ID, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusCreated)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	p, _ := principalFromContext(r.Context())

	if err := h.cart.UpdateQuantity(ctx, p.ID, productID, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusOK)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}
	p, _ := principalFromContext(r.Context())

	if err := h.cart.RemoveItem(ctx, p.ID, productID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusOK)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, _ := principalFromContext(r.Context())
	if err := h.cart.ClearCart(ctx, p.ID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respondCart(ctx, w, r, p.ID, http.StatusOK)
}

func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string, status int) {
	c, err := h.cart.GetPricedCart(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, status, c)
}

func parseProductID(w http.ResponseWriter, r *http.Request) (string, bool) {
	productID := strings.TrimSpace(chi.URLParam(r, "product_id"))
	if productID == "" {
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: "product_id is required", Code: "invalid_product_id", Details: "product_id"})
		return "", false
	}
	return productID, true
}
