package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/medagg/patient-connect/internal/calls"
	"github.com/medagg/patient-connect/internal/ivr"
	observemetrics "github.com/medagg/patient-connect/internal/observability/metrics"
	"github.com/medagg/patient-connect/pkg/logging"
)

var ivrTracer trace.Tracer = otel.Tracer("medagg.internal.http.handlers.ivr")

// notAvailableTranscript is persisted when the caller declines to talk.
const notAvailableTranscript = "Patient was not available to speak"

// enricher launches the background post-recording pipeline.
type enricher interface {
	Run(callID, recordingURL string)
}

// IVRWebhookHandler serves the provider-invoked voice webhooks. Every
// response is computed from URL parameters and the call row only; nothing is
// held in memory between stages.
type IVRWebhookHandler struct {
	flow     *ivr.Flow
	calls    calls.Repository
	enricher enricher
	logger   *logging.Logger
	metrics  *observemetrics.CallMetrics
}

// IVRWebhookConfig configures the webhook handler.
type IVRWebhookConfig struct {
	Flow     *ivr.Flow
	Calls    calls.Repository
	Enricher enricher
	Logger   *logging.Logger
	Metrics  *observemetrics.CallMetrics
}

// NewIVRWebhookHandler creates the IVR webhook handler.
func NewIVRWebhookHandler(cfg IVRWebhookConfig) *IVRWebhookHandler {
	if cfg.Flow == nil {
		panic("handlers: ivr flow required")
	}
	if cfg.Calls == nil {
		panic("handlers: calls repository required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &IVRWebhookHandler{
		flow:     cfg.Flow,
		calls:    cfg.Calls,
		enricher: cfg.Enricher,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
}

// HandleGreeting handles POST /ivr/greeting?callId&healthIssue.
func (h *IVRWebhookHandler) HandleGreeting(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, span := ivrTracer.Start(r.Context(), "ivr.webhook.greeting")
	defer span.End()

	callID := r.URL.Query().Get("callId")
	healthIssue := r.URL.Query().Get("healthIssue")
	span.SetAttributes(attribute.String("medagg.call_id", callID))

	h.logger.Info("ivr greeting webhook", "call_id", callID)
	h.writeTwiML(w, h.flow.Greeting(callID, healthIssue))
	h.metrics.ObserveWebhookLatency(ivr.StageGreeting, time.Since(start).Seconds())
}

// HandleAvailability handles POST /ivr/availability?callId&healthIssue with
// form field SpeechResult.
func (h *IVRWebhookHandler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := ivrTracer.Start(r.Context(), "ivr.webhook.availability")
	defer span.End()

	callID := r.URL.Query().Get("callId")
	healthIssue := r.URL.Query().Get("healthIssue")
	speech := r.FormValue("SpeechResult")
	span.SetAttributes(
		attribute.String("medagg.call_id", callID),
		attribute.String("medagg.speech_result", speech),
	)

	doc, notAvailable := h.flow.Availability(speech, callID, healthIssue)
	if notAvailable {
		h.logger.Info("patient not available", "call_id", callID, "speech", speech)
		if _, err := h.calls.Update(ctx, callID, calls.Update{
			Status:     calls.String(calls.StatusNotAvailable),
			Transcript: calls.String(notAvailableTranscript),
		}); err != nil {
			// The caller-facing document still goes out; the row is stale.
			h.logger.Error("failed to mark call not available", "error", err, "call_id", callID)
		}
	} else {
		h.logger.Info("patient available, recording concern", "call_id", callID)
	}

	h.writeTwiML(w, doc)
	h.metrics.ObserveWebhookLatency(ivr.StageAvailability, time.Since(start).Seconds())
}

// HandleRecordComplete handles POST /ivr/record-complete?callId&healthIssue
// with form fields RecordingUrl and RecordingDuration. The response document
// is returned immediately; enrichment runs in the background.
func (h *IVRWebhookHandler) HandleRecordComplete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, span := ivrTracer.Start(r.Context(), "ivr.webhook.record_complete")
	defer span.End()

	callID := r.URL.Query().Get("callId")
	recordingURL := r.FormValue("RecordingUrl")
	duration := r.FormValue("RecordingDuration")
	span.SetAttributes(
		attribute.String("medagg.call_id", callID),
		attribute.String("medagg.recording_url", recordingURL),
	)

	h.logger.Info("recording complete",
		"call_id", callID,
		"recording_url", recordingURL,
		"duration_s", duration,
	)

	h.writeTwiML(w, h.flow.RecordingComplete())

	if h.enricher != nil && callID != "" && recordingURL != "" {
		h.enricher.Run(callID, recordingURL)
	}
	h.metrics.ObserveWebhookLatency(ivr.StageRecordingComplete, time.Since(start).Seconds())
}

// HandleRecordingStatus handles POST /ivr/recording-status?callId, the async
// recording status callback. Errors are swallowed: the provider retries on
// non-2xx and there is nothing useful to retry here.
func (h *IVRWebhookHandler) HandleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := ivrTracer.Start(r.Context(), "ivr.webhook.recording_status")
	defer span.End()

	callID := r.URL.Query().Get("callId")
	recordingURL := r.FormValue("RecordingUrl")
	span.SetAttributes(attribute.String("medagg.call_id", callID))

	if callID != "" && recordingURL != "" {
		if _, err := h.calls.Update(ctx, callID, calls.Update{
			Status:   calls.String(calls.StatusCompleted),
			AudioURL: calls.String(recordingURL),
		}); err != nil {
			h.logger.Error("failed to store recording url", "error", err, "call_id", callID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (h *IVRWebhookHandler) writeTwiML(w http.ResponseWriter, doc *ivr.Response) {
	body, err := doc.Render()
	if err != nil {
		// Never leave the caller hanging on a malformed document.
		h.logger.Error("failed to render twiml", "error", err)
		body = xmlHangup
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.logger.Error("failed to write twiml response", "error", err)
	}
}

const xmlHangup = `<?xml version="1.0" encoding="UTF-8"?><Response><Hangup/></Response>`
