package scheduling

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced verbatim to clients. The HTTP layer maps these
// onto statuses and user-facing copy; unmapped codes fall back to a generic
// retry message.
const (
	CodeAppointmentConflict     = "appointment_conflict"
	CodeInvalidStatusTransition = "invalid_status_transition"
	CodeAppointmentNotFound     = "appointment_not_found"
	CodeForbidden               = "forbidden"
	CodeInvalidTimeRange        = "invalid_time_range"
	CodeMissingLocation         = "missing_location"
	CodeMissingVideoURL         = "missing_video_url"
	CodeInvalidModality         = "invalid_modality"
	CodeMissingTitle            = "missing_title"
	CodeInternal                = "internal_error"
)

// ServiceError pairs a stable machine-readable code with an optional cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

func newServiceError(code string, cause error) error {
	return &ServiceError{code: code, err: cause}
}

// CodeOf extracts the stable code from an error chain, defaulting to the
// internal code for anything unclassified.
func CodeOf(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code()
	}
	return CodeInternal
}
