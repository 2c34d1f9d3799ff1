package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Option is a single answer choice, keyed by a letter such as "A".
type Option struct {
	Key  string
	Text string
}

// Options is an ordered set of answer choices. It decodes from and encodes to
// a JSON object, keeping the object's key order as the display order.
type Options []Option

// Keys returns the option keys in display order.
func (o Options) Keys() []string {
	return lo.Map(o, func(opt Option, _ int) string { return opt.Key })
}

// Has reports whether key names one of the options, ignoring case.
func (o Options) Has(key string) bool {
	return lo.ContainsBy(o, func(opt Option) bool { return strings.EqualFold(opt.Key, key) })
}

// UnmarshalJSON decodes a JSON object, preserving key order.
func (o *Options) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("options: expected JSON object, got %v", tok)
	}

	var opts Options
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("options: expected string key, got %v", tok)
		}
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("options[%q]: %w", key, err)
		}
		text, err := scalarText(val)
		if err != nil {
			return fmt.Errorf("options[%q]: %w", key, err)
		}
		opts = append(opts, Option{Key: key, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = opts
	return nil
}

// MarshalJSON encodes the options as a JSON object in display order.
func (o Options) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Question is one multiple-choice question as produced by the model.
type Question struct {
	Question string  `json:"question"`
	Options  Options `json:"options"`
	Answer   string  `json:"answer"`
}

// UnmarshalJSON decodes a question record. The question text and answer may be
// JSON strings, numbers or booleans; models sometimes write `"answer": 2`.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question json.RawMessage `json:"question"`
		Options  Options         `json:"options"`
		Answer   json.RawMessage `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	text, err := scalarText(raw.Question)
	if err != nil {
		return fmt.Errorf("question: %w", err)
	}
	answer, err := scalarText(raw.Answer)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	*q = Question{Question: text, Options: raw.Options, Answer: answer}
	return nil
}

// scalarText renders a JSON string, number or boolean as display text.
// Numbers keep their literal form. Missing and null values are empty.
func scalarText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case float64, bool:
		return string(raw), nil
	default:
		return "", fmt.Errorf("expected a string, number or boolean, got %s", raw)
	}
}

// Quiz is an ordered list of questions.
type Quiz []Question

// AnswerResult records what the user entered for one question.
type AnswerResult struct {
	Question      string `json:"question"`
	YourAnswer    string `json:"your_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

// Correct reports whether the recorded answer matched.
func (r AnswerResult) Correct() bool {
	return r.YourAnswer == r.CorrectAnswer
}

// Session is the in-memory state of a single quiz run. It is never persisted.
type Session struct {
	ID      uuid.UUID
	Subject string
	Quiz    Quiz
	Results []AnswerResult
	Score   int
	Total   int
}

// NewSession starts a session for subject.
func NewSession(subject string) *Session {
	return &Session{ID: uuid.New(), Subject: subject}
}

// Wrong returns the results the user got wrong, in quiz order.
func (s *Session) Wrong() []AnswerResult {
	return lo.Filter(s.Results, func(r AnswerResult, _ int) bool { return !r.Correct() })
}

// QuizConfig holds runtime quiz parameters set via CLI flags.
type QuizConfig struct {
	NumQuestions int    // questions requested from the model
	NumOptions   int    // options per question, labeled from A
	Extractor    string // balanced or greedy
}
