package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/giftlink/backend/internal/database"
)

const (
	maxGiftBodyBytes = 1 << 20
	giftNotFound     = "Gift not found"
	giftCreated      = "Gift created successfully"
)

type createGiftResponse struct {
	Message    string        `json:"message"`
	InsertedID any           `json:"insertedId"`
	Gift       database.Gift `json:"gift"`
}

// GiftsRouter returns the gift routes, to be mounted under a prefix
func (h *Handlers) GiftsRouter() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handle(h.ListGifts))
	r.Post("/", h.handle(h.CreateGift))
	r.Get("/{id}", h.handle(h.GetGift))
	return r
}

// ListGifts returns every gift as a JSON array
func (h *Handlers) ListGifts(w http.ResponseWriter, r *http.Request) error {
	log.Debug().Msg("Listing gifts")

	gifts, err := h.gifts.ListGifts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list gifts")
		return err
	}

	h.writeJSON(w, http.StatusOK, gifts)
	return nil
}

// GetGift returns a single gift by id, or a plain-text 404
func (h *Handlers) GetGift(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")

	gift, err := h.gifts.GetGift(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		h.text(w, http.StatusNotFound, giftNotFound)
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("gift_id", id).Msg("Failed to fetch gift")
		return err
	}

	h.writeJSON(w, http.StatusOK, gift)
	return nil
}

// CreateGift stores the request body as a new gift. Any JSON object is
// accepted; there is no field validation.
func (h *Handlers) CreateGift(w http.ResponseWriter, r *http.Request) error {
	gift, err := decodeGift(http.MaxBytesReader(w, r.Body, maxGiftBodyBytes))
	if err != nil {
		log.Debug().Err(err).Msg("Rejected gift body")
		h.jsonError(w, "Request body must be a JSON object", http.StatusBadRequest)
		return nil
	}

	insertedID, err := h.gifts.CreateGift(r.Context(), gift)
	if err != nil {
		log.Error().Err(err).Msg("Failed to add gift")
		return err
	}

	log.Info().Interface("gift_id", insertedID).Msg("Gift created")

	h.writeJSON(w, http.StatusCreated, createGiftResponse{
		Message:    giftCreated,
		InsertedID: insertedID,
		Gift:       gift,
	})
	return nil
}
