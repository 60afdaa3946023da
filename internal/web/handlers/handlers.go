package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/giftlink/backend/internal/database"
)

// GiftStore is the storage the gift handlers need
type GiftStore interface {
	ListGifts(ctx context.Context) ([]database.Gift, error)
	GetGift(ctx context.Context, id string) (database.Gift, error)
	CreateGift(ctx context.Context, gift database.Gift) (any, error)
}

// Pinger reports on the database connection without establishing one
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerFunc is an HTTP handler that returns failures to the error boundary
// instead of writing a response for them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handlers contains all HTTP handlers
type Handlers struct {
	gifts  GiftStore
	pinger Pinger
}

// New creates a new Handlers instance
func New(gifts GiftStore, pinger Pinger) *Handlers {
	return &Handlers{
		gifts:  gifts,
		pinger: pinger,
	}
}

// handle adapts fn to net/http and translates any returned error into the
// final response. Handlers only decide the status for expected misses.
func (h *Handlers) handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		status, message := http.StatusInternalServerError, "Internal server error"
		if errors.Is(err, database.ErrConnect) {
			status, message = http.StatusServiceUnavailable, "Database unavailable"
		}

		log.Debug().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("Request failed")

		h.jsonError(w, message, status)
	}
}

// writeJSON sends data as JSON with the given status code
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// text sends a plain-text response
func (h *Handlers) text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
