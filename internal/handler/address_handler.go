package handler

import (
	"net/http"

	"digicommerce/internal/model"
	"digicommerce/internal/service"

	"github.com/rs/zerolog"
)

// AddressHandler serves shipping addresses.
type AddressHandler struct {
	service service.AddressService
	logger  zerolog.Logger
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(service service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger.With().Str("handler", "address").Logger(),
	}
}

// Create handles POST /api/addresses.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.AddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	address, err := h.service.Create(r.Context(), user.ID, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, address)
}

// ListMine handles GET /api/addresses.
func (h *AddressHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	addresses, err := h.service.ListMine(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	writeJSON(w, http.StatusOK, addresses)
}

// Get handles GET /api/addresses/{addressID}.
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "addressID")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	address, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

// Update handles PUT /api/addresses/{addressID}.
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "addressID")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.AddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	address, err := h.service.Update(r.Context(), user.ID, id, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, address)
}

// Delete handles DELETE /api/addresses/{addressID}.
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	id, err := pathID(r, "addressID")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Address deleted"})
}

// ListAll handles GET /api/admin/addresses.
func (h *AddressHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if addresses == nil {
		addresses = []model.Address{}
	}
	writeJSON(w, http.StatusOK, addresses)
}
