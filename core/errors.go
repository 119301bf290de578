package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals missing or invalid configuration such as an
	// absent credential. Recoverable by reconfiguring; never corrupts state.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnknownPersona is returned for identifiers outside the closed persona set.
	ErrUnknownPersona = fmt.Errorf("%w: unknown persona", ErrConfiguration)

	// ErrUnknownMode is returned for names outside the discourse mode set.
	ErrUnknownMode = errors.New("unknown discourse mode")

	// ErrGeneration is the umbrella for failures of the external generation capability.
	ErrGeneration = errors.New("generation failure")

	// ErrIngestion signals that a document could not be turned into text.
	// Callers degrade to empty supplementary text.
	ErrIngestion = errors.New("ingestion failure")

	// ErrIndexOutOfRange is returned for positions that do not exist in a
	// transcript or drill-down queue.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrEmptyTranscript rejects actions that need at least one turn.
	ErrEmptyTranscript = errors.New("transcript is empty")

	// ErrEmptyInput rejects chair actions without text.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidReference rejects references to turns that cannot be engaged with.
	ErrInvalidReference = errors.New("invalid turn reference")

	// ErrPassageNotFound is returned when a flagged passage is not part of its turn.
	ErrPassageNotFound = errors.New("passage not found in turn")

	// ErrNoPending is returned when a drill-down is fired without a selected item.
	ErrNoPending = errors.New("no pending drill-down item")

	// ErrPendingExists rejects selecting a second pending item.
	ErrPendingExists = errors.New("a drill-down item is already pending")

	// ErrForumNotFound is returned by forum stores for unknown ids.
	ErrForumNotFound = errors.New("forum not found")
)

// GenerationError reports a failed generation. It keeps the chair's typed
// text so the caller can offer it for resubmission.
type GenerationError struct {
	Persona   Speaker
	Provider  string
	ChairText string
	Cause     error
}

func (e *GenerationError) Error() string {
	msg := "generation failed"
	if e.Persona != "" {
		msg += " for " + string(e.Persona)
	}
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *GenerationError) Unwrap() error { return e.Cause }

// Is makes every GenerationError match ErrGeneration.
func (e *GenerationError) Is(target error) bool { return target == ErrGeneration }
