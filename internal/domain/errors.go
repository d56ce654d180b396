package domain

import "errors"

// Domain errors - these are returned by the core components (validator,
// manager, storage) and classified at the facade/HTTP boundary. See §7 of
// the error handling design.
var (
	// ErrValidation indicates a prospective or loaded job failed a
	// blocking validation rule. Field-level details travel alongside it.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidScheduleTime indicates scheduledTime itself is the
	// offending field, surfaced separately so clients can re-prompt for a
	// new time rather than re-submit the whole form.
	ErrInvalidScheduleTime = errors.New("invalid schedule time")

	// ErrInvalidPriority indicates an unrecognised priority enum value.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidPlatform indicates an unrecognised platform enum value.
	ErrInvalidPlatform = errors.New("invalid platform")

	// ErrDuplicateContent indicates invariant 5 blocked an add: another
	// non-terminal job already owns this (accountID, platform,
	// normalised content) key.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrJobNotFound indicates the requested jobID has no live entry in
	// JobCache.
	ErrJobNotFound = errors.New("job not found")

	// ErrStorage wraps any failure from the durable store. The sanitised
	// message is logged; callers see only a generic STORAGE_ERROR.
	ErrStorage = errors.New("storage error")
)

// DuplicateContentError carries the detail §4.D step 2 requires: the
// existing job's id prefix and status.
type DuplicateContentError struct {
	ExistingJobIDPrefix string
	ExistingStatus      Status
}

func (e *DuplicateContentError) Error() string {
	return "duplicate content: conflicts with job " + e.ExistingJobIDPrefix + " (" + string(e.ExistingStatus) + ")"
}

func (e *DuplicateContentError) Unwrap() error {
	return ErrDuplicateContent
}

// ValidationError carries the field-level details the Validator accumulates.
type ValidationError struct {
	Errors   []FieldIssue
	Warnings []FieldIssue
}

// FieldIssue is a single validation finding against one field.
type FieldIssue struct {
	Field string
	Issue string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	msg := "validation failed: " + e.Errors[0].Field + ": " + e.Errors[0].Issue
	if len(e.Errors) > 1 {
		msg += " (+more)"
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
