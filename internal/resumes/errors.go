package resumes

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resume not found")
	ErrUploadFailed      = errors.New("upload failed")
	ErrConversionFailed  = errors.New("conversion failed")
	ErrPersistFailed     = errors.New("persist failed")
	ErrAnalysisFailed    = errors.New("analysis failed")
	ErrMalformedFeedback = errors.New("malformed feedback")
	ErrInvalidInput      = errors.New("invalid input")
)

// IngestError reports the stage at which Ingest halted.
type IngestError struct {
	Stage Stage
	// Message is the user-facing status text.
	Message string
	// ResumeID is set once the draft record has been written.
	ResumeID string
	Err      error
}

func (e *IngestError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, message, resumeID string, kind, cause error) *IngestError {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &IngestError{Stage: stage, Message: message, ResumeID: resumeID, Err: err}
}
