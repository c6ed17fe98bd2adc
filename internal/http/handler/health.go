package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

// NewHealthHandler reports liveness and, when db is non-nil, store reachability.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	if h.db == nil {
		WriteSuccess(w, http.StatusOK, healthStatus{Status: "ok", Database: "none"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		slog.WarnContext(r.Context(), "health check ping failed", "error", err)
		WriteJSON(w, http.StatusServiceUnavailable, Envelope{
			Data:    healthStatus{Status: "degraded", Database: "down"},
			Code:    "SERVICE_UNAVAILABLE",
			Message: "database unreachable",
		})
		return
	}

	WriteSuccess(w, http.StatusOK, healthStatus{Status: "ok", Database: "up"})
}
