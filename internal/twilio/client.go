package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/medagg/patient-connect/pkg/logging"
)

const (
	defaultBaseURL = "https://api.twilio.com"
	callTimeout    = 15 * time.Second

	// codeUnverifiedNumber is Twilio's error code for dialing a number that a
	// trial account has not verified.
	codeUnverifiedNumber = 21211
)

// APIError is a structured error returned by the Twilio REST API.
type APIError struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio: API returned %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// IsUnverifiedNumber reports whether err is a trial-account rejection for an
// unverified destination number.
func IsUnverifiedNumber(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == codeUnverifiedNumber || strings.Contains(strings.ToLower(apiErr.Message), "unverified")
}

// Client places outbound calls and fetches recordings via the Twilio REST API.
type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientConfig configures the Twilio client.
type ClientConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// BaseURL overrides the Twilio API base URL (for testing).
	BaseURL string
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewClient creates a client for the Twilio voice API.
func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" {
		return nil, fmt.Errorf("twilio: account SID required")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, fmt.Errorf("twilio: auth token required")
	}
	if strings.TrimSpace(cfg.FromNumber) == "" {
		return nil, fmt.Errorf("twilio: from number required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: callTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// FromNumber returns the clinic's outbound caller ID.
func (c *Client) FromNumber() string {
	return c.fromNumber
}

// CreateCallRequest holds the parameters for an outbound call.
type CreateCallRequest struct {
	// To is the patient's phone number (E.164).
	To string
	// VoiceURL is the webhook Twilio fetches for the call's TwiML.
	VoiceURL string
	// RecordingStatusCallback receives the async recording status webhook.
	RecordingStatusCallback string
}

// Call is the subset of Twilio's call resource the platform uses.
type Call struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// CreateCall starts an outbound call through the provider.
func (c *Client) CreateCall(ctx context.Context, req CreateCallRequest) (*Call, error) {
	if req.To == "" {
		return nil, fmt.Errorf("twilio: destination number required")
	}
	if req.VoiceURL == "" {
		return nil, fmt.Errorf("twilio: voice webhook URL required")
	}

	form := url.Values{}
	form.Set("From", c.fromNumber)
	form.Set("To", req.To)
	form.Set("Url", req.VoiceURL)
	form.Set("Record", "true")
	if req.RecordingStatusCallback != "" {
		form.Set("RecordingStatusCallback", req.RecordingStatusCallback)
		form.Set("RecordingStatusCallbackMethod", "POST")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.baseURL, c.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.accountSID, c.authToken)

	c.logger.Info("twilio: initiating outbound call",
		"from", MaskNumber(c.fromNumber),
		"to", MaskNumber(req.To),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("twilio: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("twilio: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil {
			apiErr.Message = string(body)
		}
		c.logger.Error("twilio: call creation failed",
			"status", resp.StatusCode,
			"code", apiErr.Code,
			"to", MaskNumber(req.To),
		)
		return nil, apiErr
	}

	var call Call
	if err := json.Unmarshal(body, &call); err != nil {
		return nil, fmt.Errorf("twilio: decode response: %w", err)
	}

	c.logger.Info("twilio: outbound call initiated",
		"call_sid", call.SID,
		"to", MaskNumber(req.To),
	)
	return &call, nil
}

// FetchRecording streams recording bytes using basic-auth credentials. The
// caller must close the returned body.
func (c *Client) FetchRecording(ctx context.Context, recordingURL string) (io.ReadCloser, int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("twilio: create recording request: %w", err)
	}
	httpReq.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("twilio: fetch recording: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, &APIError{StatusCode: resp.StatusCode, Message: "recording not accessible"}
	}
	return resp.Body, resp.ContentLength, nil
}

// Credentials exposes the account credentials for collaborators that fetch
// provider resources directly (e.g. the transcription subprocess).
func (c *Client) Credentials() (sid, token string) {
	return c.accountSID, c.authToken
}
