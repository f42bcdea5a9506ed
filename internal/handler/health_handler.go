package handler

import (
	"database/sql"
	"net/http"

	"motorreach/internal/queue"
	"motorreach/internal/repository"
)

// HealthHandler handles health check and admin stats requests
type HealthHandler struct {
	db        *sql.DB
	queueConn *queue.Connection
	statsRepo repository.StatsRepository
}

// NewHealthHandler creates a new health handler. queueConn may be nil when
// the API runs without a broker.
func NewHealthHandler(db *sql.DB, queueConn *queue.Connection, statsRepo repository.StatsRepository) *HealthHandler {
	return &HealthHandler{
		db:        db,
		queueConn: queueConn,
		statsRepo: statsRepo,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy", "database": "connected"}
	code := http.StatusOK

	if err := h.db.PingContext(r.Context()); err != nil {
		status["status"] = "unhealthy"
		status["database"] = "disconnected"
		code = http.StatusServiceUnavailable
	}

	if h.queueConn != nil {
		if h.queueConn.IsConnected() {
			status["queue"] = "connected"
		} else {
			status["queue"] = "disconnected"
		}
	}

	WriteJSON(w, code, status)
}

// Stats handles GET /stats
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsRepo.Counts(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, counts)
}
