package patients

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/medagg/patient-connect/internal/calls"
	"github.com/medagg/patient-connect/pkg/logging"
)

// callInitiator starts the outbound IVR call after a booking.
type callInitiator interface {
	InitiateCall(ctx context.Context, patientID, phone, healthIssue string) (*calls.Call, error)
}

// Handler handles HTTP requests for patients.
type Handler struct {
	repo      Repository
	initiator callInitiator
	// clinicNumber is the platform's own outbound caller ID; bookings for it
	// are rejected to avoid self-dialing loops.
	clinicNumber string
	logger       *logging.Logger
}

// HandlerConfig configures the patients handler.
type HandlerConfig struct {
	Repo         Repository
	Initiator    callInitiator
	ClinicNumber string
	Logger       *logging.Logger
}

// NewHandler creates a new patients handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Repo == nil {
		panic("patients: repository required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:         cfg.Repo,
		initiator:    cfg.Initiator,
		clinicNumber: cfg.ClinicNumber,
		logger:       logger,
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

// Create handles POST /api/patients. The booking is persisted first; call
// initiation is a best-effort side effect that never fails the response.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return
	}

	if h.isClinicNumber(req.Phone) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: ErrClinicNumber.Error()})
		return
	}

	patient, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
			return
		}
		h.logger.Error("failed to create patient", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to create patient"})
		return
	}

	h.logger.Info("patient created", "id", patient.ID, "name", patient.Name)

	if h.initiator != nil {
		if _, err := h.initiator.InitiateCall(r.Context(), patient.ID, patient.Phone, patient.HealthIssue); err != nil {
			h.logger.Error("failed to initiate ivr call", "error", err, "patient_id", patient.ID)
		}
	}

	writeJSON(w, http.StatusCreated, patient)
}

// List handles GET /api/patients.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list patients", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "failed to list patients"})
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// isClinicNumber compares the last 10 digits so a bare national number still
// matches the clinic's E.164 caller ID.
func (h *Handler) isClinicNumber(phone string) bool {
	clinic := digitsOnly(h.clinicNumber)
	candidate := digitsOnly(phone)
	if len(clinic) < 10 || len(candidate) < 10 {
		return false
	}
	return clinic[len(clinic)-10:] == candidate[len(candidate)-10:]
}

func isValidationError(err error) bool {
	switch err {
	case ErrInvalidName, ErrInvalidPhone, ErrInvalidHealthIssue, ErrInvalidSeverity, ErrInvalidAppointmentDate:
		return true
	}
	return false
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
