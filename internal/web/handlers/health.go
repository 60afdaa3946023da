package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/giftlink/backend/internal/database"
)

// Healthz reports process health and the state of the database connection.
// It never opens a connection itself.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.pinger.Ping(ctx)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
	case errors.Is(err, database.ErrNotConnected):
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "not connected"})
	default:
		log.Warn().Err(err).Msg("Health check could not reach MongoDB")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
	}
}
