package calls

import "time"

// Call statuses. Transitions are driven exclusively by provider webhooks;
// completed, failed and not_available are terminal.
const (
	StatusPending      = "pending"
	StatusInProgress   = "in_progress"
	StatusProcessing   = "processing"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
	StatusNotAvailable = "not_available"
)

// Sentiment labels. Hot is the safety default: classification failures bias
// toward urgent triage rather than silently dropping a lead.
const (
	SentimentHot    = "Hot"
	SentimentNonHot = "Non-hot"
)

// Call represents one outbound IVR call attempt for a patient.
type Call struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patientId"`
	AudioURL       *string   `json:"audioUrl"`
	Transcript     *string   `json:"transcription"`
	SentimentLabel *string   `json:"sentimentLabel"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Update carries a partial update; nil fields are left untouched.
type Update struct {
	Status         *string
	AudioURL       *string
	Transcript     *string
	SentimentLabel *string
}

// String returns a pointer to s, for building Update values.
func String(s string) *string {
	return &s
}
