package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/medagg/patient-connect/internal/calls"
	observemetrics "github.com/medagg/patient-connect/internal/observability/metrics"
	"github.com/medagg/patient-connect/internal/transcribe"
	"github.com/medagg/patient-connect/pkg/logging"
)

const (
	defaultTimeout  = 2 * time.Minute
	defaultWaitMax  = 20 * time.Second
	probeTimeout    = 5 * time.Second
	initialInterval = 500 * time.Millisecond
)

// Pipeline runs the post-recording enrichment: mark the call completed,
// transcribe the recording and classify the transcript. It is fired after the
// webhook response has been written; semantics are at-most-once and
// best-effort, with failures logged and swallowed.
type Pipeline struct {
	calls       calls.Repository
	transcriber transcribe.Transcriber
	httpClient  *http.Client
	timeout     time.Duration
	waitMax     time.Duration
	logger      *logging.Logger
	metrics     *observemetrics.CallMetrics
}

// PipelineConfig configures the enrichment pipeline.
type PipelineConfig struct {
	Calls       calls.Repository
	Transcriber transcribe.Transcriber
	// HTTPClient probes recording availability before transcription.
	HTTPClient *http.Client
	// Timeout bounds one enrichment run end to end.
	Timeout time.Duration
	// WaitMax bounds the recording-availability wait.
	WaitMax time.Duration
	Logger  *logging.Logger
	Metrics *observemetrics.CallMetrics
}

// NewPipeline creates the enrichment pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Calls == nil {
		panic("enrichment: calls repository required")
	}
	if cfg.Transcriber == nil {
		panic("enrichment: transcriber required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: probeTimeout}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	waitMax := cfg.WaitMax
	if waitMax <= 0 {
		waitMax = defaultWaitMax
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{
		calls:       cfg.Calls,
		transcriber: cfg.Transcriber,
		httpClient:  httpClient,
		timeout:     timeout,
		waitMax:     waitMax,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// Run starts one enrichment in the background. The webhook response is never
// blocked on it and its failure only surfaces in logs and metrics.
func (p *Pipeline) Run(callID, recordingURL string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Process(ctx, callID, recordingURL); err != nil {
			p.metrics.ObserveEnrichment("failed")
			p.logger.Error("background enrichment failed",
				"error", err,
				"call_id", callID,
				"recording_url", recordingURL,
			)
		}
	}()
}

// Process performs one enrichment synchronously.
func (p *Pipeline) Process(ctx context.Context, callID, recordingURL string) error {
	if _, err := p.calls.Update(ctx, callID, calls.Update{
		Status:   calls.String(calls.StatusCompleted),
		AudioURL: calls.String(recordingURL),
	}); err != nil {
		return fmt.Errorf("enrichment: mark call completed: %w", err)
	}

	// Provider recordings are not instantly fetchable after the callback.
	if err := p.waitForRecording(ctx, recordingURL); err != nil {
		p.logger.Warn("recording not confirmed available, transcribing anyway",
			"error", err,
			"call_id", callID,
		)
	}

	result := p.transcriber.Transcribe(ctx, recordingURL)

	sentiment := calls.SentimentNonHot
	if result.Fallback || result.Intent.IsHot {
		sentiment = calls.SentimentHot
	}

	if _, err := p.calls.Update(ctx, callID, calls.Update{
		Transcript:     calls.String(result.Text),
		SentimentLabel: calls.String(sentiment),
	}); err != nil {
		return fmt.Errorf("enrichment: persist transcript: %w", err)
	}

	outcome := "completed"
	if result.Fallback {
		outcome = "fallback"
	}
	p.metrics.ObserveEnrichment(outcome)
	p.logger.Info("call enriched",
		"call_id", callID,
		"intent", result.Intent.Intent,
		"sentiment", sentiment,
		"fallback", result.Fallback,
	)
	return nil
}

// waitForRecording polls the recording URL until it answers, with exponential
// backoff bounded by waitMax.
func (p *Pipeline) waitForRecording(ctx context.Context, recordingURL string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxElapsedTime = p.waitMax

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, recordingURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("enrichment: recording probe returned %d", resp.StatusCode)
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}
