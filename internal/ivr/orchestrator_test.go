package ivr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medagg/patient-connect/internal/calls"
	"github.com/medagg/patient-connect/internal/twilio"
)

type fakeDialer struct {
	err     error
	lastReq twilio.CreateCallRequest
}

func (d *fakeDialer) CreateCall(_ context.Context, req twilio.CreateCallRequest) (*twilio.Call, error) {
	d.lastReq = req
	if d.err != nil {
		return nil, d.err
	}
	return &twilio.Call{SID: "CA123", Status: "queued"}, nil
}

func newTestOrchestrator(dialer *fakeDialer) (*Orchestrator, calls.Repository) {
	repo := calls.NewInMemoryRepository()
	orch := NewOrchestrator(OrchestratorConfig{
		Calls:       repo,
		Dialer:      dialer,
		Flow:        NewFlow("https://api.example.com"),
		CountryCode: "+91",
	})
	return orch, repo
}

func TestInitiateCall_Success(t *testing.T) {
	dialer := &fakeDialer{}
	orch, repo := newTestOrchestrator(dialer)

	call, err := orch.InitiateCall(context.Background(), "patient-1", "9876543210", "knee pain")
	if err != nil {
		t.Fatalf("initiate call: %v", err)
	}
	if call.Status != calls.StatusInProgress {
		t.Errorf("expected status %s, got %s", calls.StatusInProgress, call.Status)
	}

	if dialer.lastReq.To != "+919876543210" {
		t.Errorf("expected normalized destination, got %s", dialer.lastReq.To)
	}
	if !strings.Contains(dialer.lastReq.VoiceURL, "/ivr/greeting?callId="+call.ID) {
		t.Errorf("voice URL missing call id: %s", dialer.lastReq.VoiceURL)
	}
	if !strings.Contains(dialer.lastReq.VoiceURL, "healthIssue=knee+pain") {
		t.Errorf("voice URL missing health issue: %s", dialer.lastReq.VoiceURL)
	}
	if !strings.Contains(dialer.lastReq.RecordingStatusCallback, "/ivr/recording-status?callId="+call.ID) {
		t.Errorf("unexpected recording callback: %s", dialer.lastReq.RecordingStatusCallback)
	}

	stored, err := repo.GetByID(context.Background(), call.ID)
	if err != nil {
		t.Fatalf("get call: %v", err)
	}
	if stored.Status != calls.StatusInProgress {
		t.Errorf("stored status %s, want %s", stored.Status, calls.StatusInProgress)
	}
}

func TestInitiateCall_UnverifiedFallsBackToDemo(t *testing.T) {
	dialer := &fakeDialer{err: &twilio.APIError{Code: 21211, Message: "cannot call unverified number", StatusCode: 400}}
	orch, repo := newTestOrchestrator(dialer)

	call, err := orch.InitiateCall(context.Background(), "patient-1", "9876543210", "back pain")
	if err != nil {
		t.Fatalf("demo fallback must not surface an error, got %v", err)
	}
	if call.Status != calls.StatusCompleted {
		t.Errorf("expected status %s, got %s", calls.StatusCompleted, call.Status)
	}
	if call.AudioURL == nil || !strings.Contains(*call.AudioURL, "twimlets") {
		t.Errorf("expected placeholder audio URL, got %v", call.AudioURL)
	}
	if call.Transcript == nil || !strings.Contains(*call.Transcript, "back pain") {
		t.Errorf("demo transcript must mention the health issue, got %v", call.Transcript)
	}
	if call.SentimentLabel == nil || *call.SentimentLabel != calls.SentimentHot {
		t.Errorf("demo calls must be labeled hot, got %v", call.SentimentLabel)
	}

	stored, _ := repo.GetByID(context.Background(), call.ID)
	if stored.Status != calls.StatusCompleted {
		t.Errorf("stored status %s, want %s", stored.Status, calls.StatusCompleted)
	}
}

func TestInitiateCall_ProviderErrorMarksFailed(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("connection refused")}
	orch, repo := newTestOrchestrator(dialer)

	_, err := orch.InitiateCall(context.Background(), "patient-1", "9876543210", "knee pain")
	if err == nil {
		t.Fatal("expected error from provider failure")
	}

	all, _ := repo.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one call record, got %d", len(all))
	}
	if all[0].Status != calls.StatusFailed {
		t.Errorf("expected status %s, got %s", calls.StatusFailed, all[0].Status)
	}
}

func TestInitiateCall_NoDialerSimulatesDemo(t *testing.T) {
	repo := calls.NewInMemoryRepository()
	orch := NewOrchestrator(OrchestratorConfig{
		Calls:       repo,
		Flow:        NewFlow("https://api.example.com"),
		CountryCode: "+91",
	})

	call, err := orch.InitiateCall(context.Background(), "patient-1", "9876543210", "migraine")
	if err != nil {
		t.Fatalf("demo mode must not fail: %v", err)
	}
	if call.Status != calls.StatusCompleted {
		t.Errorf("expected status %s, got %s", calls.StatusCompleted, call.Status)
	}
	if call.Transcript == nil || !strings.Contains(*call.Transcript, "migraine") {
		t.Errorf("demo transcript must mention the health issue, got %v", call.Transcript)
	}
	if call.SentimentLabel == nil || *call.SentimentLabel != calls.SentimentHot {
		t.Errorf("demo calls must be labeled hot, got %v", call.SentimentLabel)
	}
}

func TestInitiateCall_RequiresPatient(t *testing.T) {
	orch, _ := newTestOrchestrator(&fakeDialer{})
	if _, err := orch.InitiateCall(context.Background(), "", "9876543210", "knee pain"); err == nil {
		t.Error("expected error for missing patient id")
	}
}
