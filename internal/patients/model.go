package patients

import (
	"strings"
	"time"
)

// Severity levels a patient can report on the booking form.
const (
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
)

var validSeverities = map[string]bool{
	SeverityHigh:     true,
	SeverityModerate: true,
	SeverityLow:      true,
}

// Patient represents a booking submitted from the web form. Patients are
// immutable after creation; the call subsystem only reads phone and issue.
type Patient struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	HealthIssue     string    `json:"healthIssue"`
	Severity        string    `json:"severity"`
	AppointmentDate string    `json:"appointmentDate"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreatePatientRequest represents the booking form payload.
type CreatePatientRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	HealthIssue     string `json:"healthIssue"`
	Severity        string `json:"severity"`
	AppointmentDate string `json:"appointmentDate"`
}

// Validate validates the booking request.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrInvalidPhone
	}
	if strings.TrimSpace(r.HealthIssue) == "" {
		return ErrInvalidHealthIssue
	}
	if !validSeverities[r.Severity] {
		return ErrInvalidSeverity
	}
	if _, err := time.Parse("2006-01-02", r.AppointmentDate); err != nil {
		return ErrInvalidAppointmentDate
	}
	return nil
}
