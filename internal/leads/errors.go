package leads

import "errors"

var (
	// ErrInvalidName is returned when the name is invalid
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidStatus is returned for a status outside the pipeline
	ErrInvalidStatus = errors.New("status is not a known pipeline status")

	// ErrNegativeValue is returned when score or potential value is negative
	ErrNegativeValue = errors.New("score and potential value must not be negative")

	// ErrInvalidTimestamp is returned when a request carries an unparsable timestamp
	ErrInvalidTimestamp = errors.New("timestamp could not be parsed")

	// ErrMissingUserID is returned when a lead is not scoped to an owner
	ErrMissingUserID = errors.New("user id is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
