package patients

import "errors"

var (
	// ErrInvalidName is returned when the name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidPhone is returned when the phone number is missing
	ErrInvalidPhone = errors.New("phone is required")

	// ErrInvalidHealthIssue is returned when the health issue is missing
	ErrInvalidHealthIssue = errors.New("health issue is required")

	// ErrInvalidSeverity is returned when severity is not high, moderate or low
	ErrInvalidSeverity = errors.New("severity must be one of high, moderate, low")

	// ErrInvalidAppointmentDate is returned when the date is not YYYY-MM-DD
	ErrInvalidAppointmentDate = errors.New("appointment date must be YYYY-MM-DD")

	// ErrClinicNumber is returned when the booking phone is the clinic's own
	// outbound caller ID
	ErrClinicNumber = errors.New("this is the clinic phone number, please enter your actual phone number")

	// ErrPatientNotFound is returned when a patient is not found
	ErrPatientNotFound = errors.New("patient not found")
)
