package calls

import "errors"

var (
	// ErrCallNotFound is returned when a call is not found
	ErrCallNotFound = errors.New("call not found")

	// ErrMissingPatientID is returned when a call is created without an owner
	ErrMissingPatientID = errors.New("patient id is required")
)
