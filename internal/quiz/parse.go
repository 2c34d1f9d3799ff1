package quiz

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/pavelanni/quizgene/internal/model"
)

// Parse decodes a candidate JSON array into a quiz. Only a candidate that is
// not a JSON array is a *ParseError. Option values, question text and answers
// may be strings, numbers or booleans. An element that is not a question
// object is a *RecordError. Parse does not check that records are complete;
// see Validate.
func Parse(candidate string) (model.Quiz, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &elems); err != nil {
		return nil, &ParseError{Candidate: candidate, Err: err}
	}
	return decodeRecords(elems)
}

func decodeRecords(elems []json.RawMessage) (model.Quiz, error) {
	q := make(model.Quiz, len(elems))
	for i, elem := range elems {
		if err := json.Unmarshal(elem, &q[i]); err != nil {
			return nil, &RecordError{Index: i, Reason: "not a question object: " + recordDecodeReason(err)}
		}
	}
	return q, nil
}

// recordDecodeReason trims the decoder's Go type names out of err.
func recordDecodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return typeErr.Field + " is a JSON " + typeErr.Value
		}
		return "got a JSON " + typeErr.Value
	}
	return err.Error()
}

// Validate reports the first question that cannot be administered.
func Validate(q model.Quiz) error {
	for i, question := range q {
		if err := validateQuestion(i, question); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(i int, q model.Question) error {
	if strings.TrimSpace(q.Question) == "" {
		return &RecordError{Index: i, Reason: "missing question text"}
	}
	if len(q.Options) == 0 {
		return &RecordError{Index: i, Reason: "missing options"}
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		key := strings.ToUpper(strings.TrimSpace(opt.Key))
		if key == "" {
			return &RecordError{Index: i, Reason: "empty option key"}
		}
		if seen[key] {
			return &RecordError{Index: i, Reason: "duplicate option key " + key}
		}
		seen[key] = true
	}
	if strings.TrimSpace(q.Answer) == "" {
		return &RecordError{Index: i, Reason: "missing answer"}
	}
	if !seen[strings.ToUpper(strings.TrimSpace(q.Answer))] {
		return &RecordError{Index: i, Reason: "answer " + q.Answer + " is not one of the options"}
	}
	return nil
}
