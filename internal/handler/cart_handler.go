package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"digicommerce/internal/model"
	"digicommerce/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler serves the current user's cart and the admin cart listing.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

type removeItemResponse struct {
	Removed bool   `json:"removed"`
	Message string `json:"message"`
}

// GetCart handles GET /api/carts/me.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	cart, err := h.service.GetCart(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/carts/products/{productID}?quantity=N. The
// quantity defaults to one.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	qty := 1
	if v := r.URL.Query().Get("quantity"); v != "" {
		if qty, err = strconv.Atoi(v); err != nil {
			writeError(w, r, model.ErrInvalidQuantity, h.logger)
			return
		}
	}

	cart, err := h.service.AddItem(r.Context(), user.ID, productID, qty)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, cart)
}

// SetQuantity handles PUT /api/carts/products/{productID}/quantity/{quantity}.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	qty, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		writeError(w, r, model.ErrInvalidQuantity, h.logger)
		return
	}

	cart, err := h.service.SetItemQuantity(r.Context(), user.ID, productID, qty)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/carts/products/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	removed, err := h.service.RemoveItem(r.Context(), user.ID, productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	msg := fmt.Sprintf("Product %d removed from the cart", productID)
	if !removed {
		msg = fmt.Sprintf("Product %d was not in the cart", productID)
	}
	writeJSON(w, http.StatusOK, removeItemResponse{Removed: removed, Message: msg})
}

// Clear handles DELETE /api/carts/me.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.Clear(r.Context(), user.ID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared"})
}

// ListAll handles GET /api/admin/carts.
func (h *CartHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	carts, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, carts)
}
