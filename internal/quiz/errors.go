package quiz

import "fmt"

// ExtractError means the model output held no JSON array.
type ExtractError struct {
	Raw string
}

func (e *ExtractError) Error() string {
	return "no JSON array found in model output"
}

// ParseError means the extracted candidate was not a valid quiz document.
type ParseError struct {
	Candidate string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse quiz JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RecordError means a parsed question cannot be administered.
type RecordError struct {
	Index  int // zero-based position in the quiz
	Reason string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("question %d: %s", e.Index+1, e.Reason)
}

// ModelError means a call to the model failed.
type ModelError struct {
	Stage string // "generate quiz" or "generate feedback"
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
