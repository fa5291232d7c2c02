package calls

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/medagg/patient-connect/pkg/logging"
)

// recordingFetcher streams recording bytes from the telephony provider.
type recordingFetcher interface {
	FetchRecording(ctx context.Context, recordingURL string) (io.ReadCloser, int64, error)
}

// Handler handles HTTP requests for calls.
type Handler struct {
	repo    Repository
	fetcher recordingFetcher
	logger  *logging.Logger
}

// NewHandler creates a new calls handler. fetcher may be nil when no
// provider credentials are configured; the audio endpoint then returns 404.
func NewHandler(repo Repository, fetcher recordingFetcher, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("calls: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:    repo,
		fetcher: fetcher,
		logger:  logger,
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

// List handles GET /api/calls.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list calls", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to list calls"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Audio handles GET /api/calls/{id}/audio, proxying recording bytes from the
// provider with basic-auth credentials.
func (h *Handler) Audio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	call, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCallNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Message: "audio not found"})
			return
		}
		h.logger.Error("failed to load call", "error", err, "call_id", id)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to fetch audio"})
		return
	}
	if call.AudioURL == nil || *call.AudioURL == "" || h.fetcher == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "audio not found"})
		return
	}

	body, length, err := h.fetcher.FetchRecording(r.Context(), *call.AudioURL)
	if err != nil {
		h.logger.Warn("recording not accessible", "error", err, "call_id", id)
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "audio file not accessible"})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "audio/wav")
	if length > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("failed to stream audio", "error", err, "call_id", id)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
