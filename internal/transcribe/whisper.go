package transcribe

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/medagg/patient-connect/internal/intent"
	"github.com/medagg/patient-connect/pkg/logging"
)

// Result is the outcome of transcribing a recording. Fallback marks results
// where the pipeline degraded to the canned tuple instead of a real
// transcript; downstream triage treats those as urgent.
type Result struct {
	Text     string
	Language string
	Intent   intent.Classification
	Fallback bool
}

// Transcriber converts a recording reference into text plus classification.
// Implementations must never fail: transcription is best-effort enrichment,
// not a gate for call completion.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) Result
}

// commandRunner abstracts subprocess execution for testing.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// WhisperTranscriber shells out to the Python Whisper service and parses its
// single-line JSON result.
type WhisperTranscriber struct {
	python     string
	script     string
	accountSID string
	authToken  string
	run        commandRunner
	logger     *logging.Logger
}

// WhisperConfig configures the subprocess transcriber.
type WhisperConfig struct {
	// Python is the interpreter binary, Script the transcription entry point.
	Python string
	Script string
	// AccountSID/AuthToken let the script download the recording from the
	// telephony provider.
	AccountSID string
	AuthToken  string
	// Run overrides subprocess execution (for testing).
	Run    func(ctx context.Context, name string, args ...string) ([]byte, error)
	Logger *logging.Logger
}

// NewWhisperTranscriber creates the subprocess-backed transcriber.
func NewWhisperTranscriber(cfg WhisperConfig) *WhisperTranscriber {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	run := commandRunner(cfg.Run)
	if run == nil {
		run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		}
	}
	python := cfg.Python
	if python == "" {
		python = "python3"
	}
	return &WhisperTranscriber{
		python:     python,
		script:     cfg.Script,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		run:        run,
		logger:     logger,
	}
}

// scriptResult mirrors the JSON contract of the transcription script.
type scriptResult struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	Transcription struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	} `json:"transcription"`
	Intent *intent.Classification `json:"intent"`
}

// Transcribe runs the subprocess and normalizes every failure mode into the
// fallback tuple. The subprocess inherits ctx, so a hung process is killed
// when the caller's deadline expires.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, recordingURL string) Result {
	output, err := t.run(ctx, t.python, t.script, recordingURL, t.accountSID, t.authToken)
	if err != nil {
		t.logger.Error("transcription subprocess failed", "error", err, "recording_url", recordingURL)
		return fallback("Call recorded successfully. Transcription processing failed.")
	}

	jsonLine := extractJSONLine(string(output))
	if jsonLine == "" {
		t.logger.Error("no JSON found in transcription output", "recording_url", recordingURL)
		return fallback("Transcription completed but no valid result found.")
	}

	var parsed scriptResult
	if err := json.Unmarshal([]byte(jsonLine), &parsed); err != nil {
		t.logger.Error("failed to parse transcription output", "error", err)
		return fallback("Audio processing completed but parsing failed.")
	}
	if !parsed.Success {
		t.logger.Error("transcription reported failure", "reason", parsed.Error)
		return fallback("Call transcription failed. Please check logs.")
	}

	text := parsed.Transcription.Text
	if text == "" {
		text = "Transcription completed successfully."
	}
	language := parsed.Transcription.Language
	if language == "" {
		language = "en"
	}
	classification := intent.Classify(text)
	if parsed.Intent != nil {
		classification = *parsed.Intent
	}

	t.logger.Info("transcription successful", "language", language, "intent", classification.Intent)
	return Result{
		Text:     text,
		Language: language,
		Intent:   classification,
	}
}

// extractJSONLine finds the first stdout line that is a complete JSON object.
// The script logs progress lines around its result.
func extractJSONLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
			return trimmed
		}
	}
	return ""
}

func fallback(text string) Result {
	return Result{
		Text:     text,
		Language: "en",
		Intent: intent.Classification{
			Intent:     intent.GeneralEnquiry,
			Confidence: 0,
			Scores:     map[string]int{},
			IsHot:      false,
		},
		Fallback: true,
	}
}
