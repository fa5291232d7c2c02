package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/medagg/patient-connect/internal/calls"
	"github.com/medagg/patient-connect/internal/ivr"
)

type fakeEnricher struct {
	callID       string
	recordingURL string
	runs         int
}

func (f *fakeEnricher) Run(callID, recordingURL string) {
	f.callID = callID
	f.recordingURL = recordingURL
	f.runs++
}

func newWebhookHandler(repo calls.Repository, enricher *fakeEnricher) *IVRWebhookHandler {
	cfg := IVRWebhookConfig{
		Flow:  ivr.NewFlow("https://api.example.com"),
		Calls: repo,
	}
	if enricher != nil {
		cfg.Enricher = enricher
	}
	return NewIVRWebhookHandler(cfg)
}

func TestHandleGreeting(t *testing.T) {
	handler := newWebhookHandler(calls.NewInMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodPost, "/ivr/greeting?callId=c1&healthIssue=knee+pain", nil)
	w := httptest.NewRecorder()
	handler.HandleGreeting(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/xml" {
		t.Errorf("expected text/xml, got %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "MedAgg Healthcare") {
		t.Errorf("missing greeting script: %s", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Errorf("missing gather verb: %s", body)
	}
}

func TestHandleAvailability_Decline(t *testing.T) {
	repo := calls.NewInMemoryRepository()
	call, _ := repo.Create(context.Background(), "patient-1")
	handler := newWebhookHandler(repo, nil)

	form := url.Values{"SpeechResult": {"No, I'm busy"}}
	req := httptest.NewRequest(http.MethodPost, "/ivr/availability?callId="+call.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.HandleAvailability(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<Record") {
		t.Errorf("decline must not record: %s", w.Body.String())
	}

	stored, _ := repo.GetByID(context.Background(), call.ID)
	if stored.Status != calls.StatusNotAvailable {
		t.Errorf("expected status %s, got %s", calls.StatusNotAvailable, stored.Status)
	}
	if stored.Transcript == nil || *stored.Transcript != "Patient was not available to speak" {
		t.Errorf("unexpected transcript: %v", stored.Transcript)
	}
}

func TestHandleAvailability_Accept(t *testing.T) {
	repo := calls.NewInMemoryRepository()
	call, _ := repo.Create(context.Background(), "patient-1")
	handler := newWebhookHandler(repo, nil)

	form := url.Values{"SpeechResult": {"yes sure"}}
	req := httptest.NewRequest(http.MethodPost, "/ivr/availability?callId="+call.ID+"&healthIssue=knee+pain", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.HandleAvailability(w, req)

	if !strings.Contains(w.Body.String(), "<Record") {
		t.Errorf("accept must record: %s", w.Body.String())
	}

	stored, _ := repo.GetByID(context.Background(), call.ID)
	if stored.Status != calls.StatusPending {
		t.Errorf("accept must not change status yet, got %s", stored.Status)
	}
}

func TestHandleRecordComplete_TriggersEnrichment(t *testing.T) {
	repo := calls.NewInMemoryRepository()
	call, _ := repo.Create(context.Background(), "patient-1")
	enricher := &fakeEnricher{}
	handler := newWebhookHandler(repo, enricher)

	form := url.Values{
		"RecordingUrl":      {"https://api.twilio.com/rec/RE1"},
		"RecordingDuration": {"12"},
	}
	req := httptest.NewRequest(http.MethodPost, "/ivr/record-complete?callId="+call.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.HandleRecordComplete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Thank you for sharing your concern") {
		t.Errorf("missing closing script: %s", w.Body.String())
	}
	if enricher.runs != 1 {
		t.Fatalf("expected one enrichment run, got %d", enricher.runs)
	}
	if enricher.callID != call.ID || enricher.recordingURL != "https://api.twilio.com/rec/RE1" {
		t.Errorf("enricher got %s/%s", enricher.callID, enricher.recordingURL)
	}
}

func TestHandleRecordComplete_NoRecordingSkipsEnrichment(t *testing.T) {
	enricher := &fakeEnricher{}
	handler := newWebhookHandler(calls.NewInMemoryRepository(), enricher)

	req := httptest.NewRequest(http.MethodPost, "/ivr/record-complete?callId=c1", nil)
	w := httptest.NewRecorder()
	handler.HandleRecordComplete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if enricher.runs != 0 {
		t.Errorf("enrichment must not run without a recording URL")
	}
}

func TestHandleRecordingStatus(t *testing.T) {
	repo := calls.NewInMemoryRepository()
	call, _ := repo.Create(context.Background(), "patient-1")
	handler := newWebhookHandler(repo, nil)

	form := url.Values{"RecordingUrl": {"https://api.twilio.com/rec/RE2"}}
	req := httptest.NewRequest(http.MethodPost, "/ivr/recording-status?callId="+call.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.HandleRecordingStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	stored, _ := repo.GetByID(context.Background(), call.ID)
	if stored.Status != calls.StatusCompleted {
		t.Errorf("expected status %s, got %s", calls.StatusCompleted, stored.Status)
	}
	if stored.AudioURL == nil || *stored.AudioURL != "https://api.twilio.com/rec/RE2" {
		t.Errorf("unexpected audio URL: %v", stored.AudioURL)
	}
}

func TestHandleRecordingStatus_UnknownCallStillSucceeds(t *testing.T) {
	handler := newWebhookHandler(calls.NewInMemoryRepository(), nil)

	form := url.Values{"RecordingUrl": {"https://api.twilio.com/rec/RE3"}}
	req := httptest.NewRequest(http.MethodPost, "/ivr/recording-status?callId=missing", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	handler.HandleRecordingStatus(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status callback must always answer 200, got %d", w.Code)
	}
}
