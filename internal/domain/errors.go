package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInFlight     = errors.New("a status update for this comparison is already in flight")
	ErrNoComparison = errors.New("no comparison is open")
)

// ValidationError is raised locally, before any collaborator is called.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// PreconditionError reports a missing identity or actor.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

const (
	fallbackComparison = "comparison request failed"
	fallbackStatus     = "status update failed"
	fallbackHistory    = "history could not be loaded"
)

// ComparisonRequestError is a collaborator failure while comparing images.
// Message is the collaborator's reason, surfaced verbatim when present.
type ComparisonRequestError struct {
	Message string
	Err     error
}

func (e *ComparisonRequestError) Error() string { return messageOr(e.Message, fallbackComparison) }
func (e *ComparisonRequestError) Unwrap() error { return e.Err }

type StatusUpdateError struct {
	Message string
	Err     error
}

func (e *StatusUpdateError) Error() string { return messageOr(e.Message, fallbackStatus) }
func (e *StatusUpdateError) Unwrap() error { return e.Err }

type HistoryLoadError struct {
	Message string
	Err     error
}

func (e *HistoryLoadError) Error() string { return messageOr(e.Message, fallbackHistory) }
func (e *HistoryLoadError) Unwrap() error { return e.Err }

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

// IsCollaboratorError reports whether err came from an external collaborator
// rather than local validation.
func IsCollaboratorError(err error) bool {
	var ce *ComparisonRequestError
	var se *StatusUpdateError
	var he *HistoryLoadError
	return errors.As(err, &ce) || errors.As(err, &se) || errors.As(err, &he)
}
