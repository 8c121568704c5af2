package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dom/storefront/internal/api/middleware"
	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartItemResponse struct {
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal float64         `json:"subtotal"`
}

type CartResponse struct {
	ID    string             `json:"id"`
	Items []CartItemResponse `json:"items"`
	Total float64            `json:"total"`
}

func newCartResponse(c *domain.MaterializedCart) CartResponse {
	resp := CartResponse{
		ID:    c.ID.String(),
		Items: make([]CartItemResponse, len(c.Items)),
		Total: c.Total,
	}
	for i := range c.Items {
		item := &c.Items[i]
		resp.Items[i] = CartItemResponse{
			Product:  newProductResponse(&item.Product),
			Quantity: item.Quantity,
			Subtotal: item.Subtotal,
		}
	}
	return resp
}

// Get returns the materialized cart. Lines whose product was removed from
// the catalog are simply absent.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, err := uuid.Parse(chi.URLParam(r, "cartId"))
	if err != nil {
		http.Error(w, "Invalid cart ID", http.StatusBadRequest)
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), cartID)
	if err != nil {
		writeError(w, r, "cart.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

// Mine returns the current principal's cart, creating it on first use.
func (h *CartHandler) Mine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cartID, err := h.cartService.CartForOwner(r.Context(), principal.Key())
	if err != nil {
		writeError(w, r, "cart.Mine", err)
		return
	}

	cart, err := h.cartService.GetCart(r.Context(), cartID)
	if err != nil {
		writeError(w, r, "cart.Mine", err)
		return
	}

	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

type itemMutation func(ctx context.Context, cartID uuid.UUID, ownerID string, productID uuid.UUID, qty int) error

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, "cart.AddItem", h.cartService.AddItem)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	h.mutateItem(w, r, "cart.UpdateItem", h.cartService.UpdateItem)
}

func (h *CartHandler) mutateItem(w http.ResponseWriter, r *http.Request, op string, mutate itemMutation) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cartID, productID, ok := parseCartItemParams(w, r)
	if !ok {
		return
	}

	var req QuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := mutate(r.Context(), cartID, principal.Key(), productID, req.Quantity); err != nil {
		writeError(w, r, op, err)
		return
	}

	h.respondWithCart(w, r, op, cartID)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cartID, productID, ok := parseCartItemParams(w, r)
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(r.Context(), cartID, principal.Key(), productID); err != nil {
		writeError(w, r, "cart.RemoveItem", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	cartID, err := uuid.Parse(chi.URLParam(r, "cartId"))
	if err != nil {
		http.Error(w, "Invalid cart ID", http.StatusBadRequest)
		return
	}

	if err := h.cartService.Clear(r.Context(), cartID, principal.Key()); err != nil {
		writeError(w, r, "cart.Clear", err)
		return
	}

	h.respondWithCart(w, r, "cart.Clear", cartID)
}

func (h *CartHandler) respondWithCart(w http.ResponseWriter, r *http.Request, op string, cartID uuid.UUID) {
	cart, err := h.cartService.GetCart(r.Context(), cartID)
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartResponse(cart))
}

func parseCartItemParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	cartID, err := uuid.Parse(chi.URLParam(r, "cartId"))
	if err != nil {
		http.Error(w, "Invalid cart ID", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productId"))
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return cartID, productID, true
}
