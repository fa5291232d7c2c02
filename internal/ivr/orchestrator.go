package ivr

import (
	"context"
	"fmt"

	"github.com/medagg/patient-connect/internal/calls"
	observemetrics "github.com/medagg/patient-connect/internal/observability/metrics"
	"github.com/medagg/patient-connect/internal/twilio"
	"github.com/medagg/patient-connect/pkg/logging"
)

// demoAudioURL is the placeholder recording attached to simulated calls.
const demoAudioURL = "https://twilio.com/docs/tutorials/twimlets/voicemail/welcome.wav"

// voiceDialer is the subset of the Twilio client the orchestrator needs.
type voiceDialer interface {
	CreateCall(ctx context.Context, req twilio.CreateCallRequest) (*twilio.Call, error)
}

// Orchestrator starts outbound IVR calls and wires the webhook flow back to
// the call records.
type Orchestrator struct {
	calls       calls.Repository
	dialer      voiceDialer
	flow        *Flow
	countryCode string
	logger      *logging.Logger
	metrics     *observemetrics.CallMetrics
}

// OrchestratorConfig configures the orchestrator.
type OrchestratorConfig struct {
	Calls calls.Repository
	// Dialer places the outbound call. A nil dialer puts the orchestrator in
	// demo mode: every call is simulated, never dialed.
	Dialer voiceDialer
	Flow   *Flow
	// CountryCode is prepended to bare 10-digit numbers.
	CountryCode string
	Logger      *logging.Logger
	Metrics     *observemetrics.CallMetrics
}

// NewOrchestrator creates a call orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Calls == nil {
		panic("ivr: calls repository required")
	}
	if cfg.Flow == nil {
		panic("ivr: flow required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = "+91"
	}
	return &Orchestrator{
		calls:       cfg.Calls,
		dialer:      cfg.Dialer,
		flow:        cfg.Flow,
		countryCode: countryCode,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// InitiateCall places an outbound IVR call for the patient. When the provider
// rejects the destination as unverified (trial accounts), the call is
// simulated instead of failed so the booking flow never breaks.
func (o *Orchestrator) InitiateCall(ctx context.Context, patientID, phone, healthIssue string) (*calls.Call, error) {
	formatted := twilio.FormatNumber(phone, o.countryCode)

	record, err := o.calls.Create(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("ivr: create call record: %w", err)
	}

	if o.dialer == nil {
		o.logger.Warn("no voice provider configured, simulating demo flow",
			"call_id", record.ID,
			"to", twilio.MaskNumber(formatted),
		)
		return o.applyDemoFallback(ctx, record.ID, healthIssue)
	}

	_, dialErr := o.dialer.CreateCall(ctx, twilio.CreateCallRequest{
		To:                      formatted,
		VoiceURL:                o.flow.GreetingURL(record.ID, healthIssue),
		RecordingStatusCallback: o.flow.RecordingStatusURL(record.ID),
	})
	if dialErr == nil {
		updated, err := o.calls.Update(ctx, record.ID, calls.Update{
			Status: calls.String(calls.StatusInProgress),
		})
		if err != nil {
			return nil, fmt.Errorf("ivr: mark call in progress: %w", err)
		}
		o.metrics.ObserveInitiated("in_progress")
		o.logger.Info("ivr call initiated",
			"call_id", record.ID,
			"patient_id", patientID,
			"to", twilio.MaskNumber(formatted),
		)
		return updated, nil
	}

	if twilio.IsUnverifiedNumber(dialErr) {
		o.logger.Warn("ivr call rejected as unverified, simulating demo flow",
			"call_id", record.ID,
			"to", twilio.MaskNumber(formatted),
		)
		return o.applyDemoFallback(ctx, record.ID, healthIssue)
	}

	if _, err := o.calls.Update(ctx, record.ID, calls.Update{
		Status: calls.String(calls.StatusFailed),
	}); err != nil {
		o.logger.Error("failed to mark call failed", "error", err, "call_id", record.ID)
	}
	o.metrics.ObserveInitiated("failed")
	return nil, fmt.Errorf("ivr: initiate call: %w", dialErr)
}

// applyDemoFallback completes the call as a simulation with the placeholder
// recording and a synthesized transcript.
func (o *Orchestrator) applyDemoFallback(ctx context.Context, callID, healthIssue string) (*calls.Call, error) {
	transcript := fmt.Sprintf("IVR demo: patient available and described %s. Recorded 15-second concern about symptoms.", healthIssue)
	updated, err := o.calls.Update(ctx, callID, calls.Update{
		Status:         calls.String(calls.StatusCompleted),
		AudioURL:       calls.String(demoAudioURL),
		Transcript:     calls.String(transcript),
		SentimentLabel: calls.String(calls.SentimentHot),
	})
	if err != nil {
		return nil, fmt.Errorf("ivr: apply demo fallback: %w", err)
	}
	o.metrics.ObserveInitiated("demo")
	return updated, nil
}
