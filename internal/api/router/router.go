package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medagg/patient-connect/internal/calls"
	"github.com/medagg/patient-connect/internal/dashboard"
	"github.com/medagg/patient-connect/internal/http/handlers"
	"github.com/medagg/patient-connect/internal/http/middleware"
	"github.com/medagg/patient-connect/internal/patients"
	"github.com/medagg/patient-connect/pkg/logging"
)

// Config carries the handlers wired into the router. Nil handlers leave
// their routes unregistered, which keeps partial wiring possible in tests.
type Config struct {
	Patients    *patients.Handler
	Calls       *calls.Handler
	Dashboard   *dashboard.Handler
	IVRWebhooks *handlers.IVRWebhookHandler

	CORSAllowedOrigins []string
	Logger             *logging.Logger
}

// New builds the HTTP router.
func New(cfg Config) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	if cfg.IVRWebhooks != nil {
		r.Route("/ivr", func(r chi.Router) {
			r.Post("/greeting", cfg.IVRWebhooks.HandleGreeting)
			r.Post("/availability", cfg.IVRWebhooks.HandleAvailability)
			r.Post("/record-complete", cfg.IVRWebhooks.HandleRecordComplete)
			r.Post("/recording-status", cfg.IVRWebhooks.HandleRecordingStatus)
		})
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Patients != nil {
			r.Post("/patients", cfg.Patients.Create)
			r.Get("/patients", cfg.Patients.List)
		}
		if cfg.Calls != nil {
			r.Get("/calls", cfg.Calls.List)
			r.Get("/calls/{id}/audio", cfg.Calls.Audio)
		}
		if cfg.Dashboard != nil {
			r.Get("/dashboard/stats", cfg.Dashboard.GetStats)
		}
	})

	return r
}
