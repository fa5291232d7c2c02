package dashboard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/medagg/patient-connect/pkg/logging"
)

// statsProvider computes the aggregate snapshot.
type statsProvider interface {
	GetStats(ctx context.Context) (*Stats, error)
}

// Handler serves the dashboard stats endpoint.
type Handler struct {
	stats  statsProvider
	cache  *StatsCache
	logger *logging.Logger
}

// NewHandler creates the dashboard handler. cache may be nil.
func NewHandler(stats statsProvider, cache *StatsCache, logger *logging.Logger) *Handler {
	if stats == nil {
		panic("dashboard: stats provider required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{stats: stats, cache: cache, logger: logger}
}

// GetStats handles GET /api/dashboard/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached := h.cache.Get(ctx); cached != nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := h.stats.GetStats(ctx)
	if err != nil {
		h.logger.Error("failed to compute dashboard stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to fetch stats"})
		return
	}
	h.cache.Set(ctx, stats)

	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
