package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/quizgene/internal/model"
)

const (
	// DefaultQuestions is the number of questions requested when none is configured.
	DefaultQuestions = 5
	// DefaultOptions is the number of options per question when none is configured.
	DefaultOptions = 4

	maxOptions       = 26
	maxSubjectLength = 200
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	loadOnce         sync.Once
	loadErr          error
	generateTemplate *template.Template
	feedbackTemplate *template.Template
)

// exampleOptions fill the sample question embedded in the generation prompt.
var exampleOptions = []string{"A snake", "A programming language", "A car", "A game"}

// GenerateData holds template data for the quiz generation prompt.
type GenerateData struct {
	Subject      string
	NumQuestions int
	NumOptions   int
	Letters      string
	Example      string
}

// FeedbackData holds template data for the feedback prompt.
type FeedbackData struct {
	Subject string
	Score   int
	Total   int
	Results string
	Missed  []string
}

func load() error {
	loadOnce.Do(func() {
		generateTemplate, loadErr = parse("templates/generate.txt")
		if loadErr != nil {
			return
		}
		feedbackTemplate, loadErr = parse("templates/feedback.txt")
	})
	return loadErr
}

func parse(name string) (*template.Template, error) {
	content, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// OptionLetters returns the option keys for n options: A, B, C, ...
// n is clamped to the range 2..26.
func OptionLetters(n int) []string {
	n = min(max(n, 2), maxOptions)
	letters := make([]string, n)
	for i := range letters {
		letters[i] = string(rune('A' + i))
	}
	return letters
}

// BuildQuizPrompt builds the prompt asking for numQuestions questions on
// subject, each with numOptions lettered options.
func BuildQuizPrompt(subject string, numQuestions, numOptions int) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	if numQuestions <= 0 {
		numQuestions = DefaultQuestions
	}
	if numOptions <= 0 {
		numOptions = DefaultOptions
	}
	letters := OptionLetters(numOptions)
	if len(letters) != numOptions {
		slog.Warn("num-options out of range, clamped", "requested", numOptions, "using", len(letters))
	}

	example, err := exampleJSON(letters)
	if err != nil {
		return "", err
	}

	data := GenerateData{
		Subject:      sanitizeSubject(subject),
		NumQuestions: numQuestions,
		NumOptions:   len(letters),
		Letters:      strings.Join(letters, ", "),
		Example:      example,
	}

	var buf bytes.Buffer
	if err := generateTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildFeedbackPrompt builds the prompt asking for study suggestions based on
// a finished quiz.
func BuildFeedbackPrompt(report model.Report) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}

	results, err := json.MarshalIndent(report.Results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}

	data := FeedbackData{
		Subject: sanitizeSubject(report.Subject),
		Score:   report.Score,
		Total:   report.Total,
		Results: string(results),
		Missed:  report.Missed,
	}

	var buf bytes.Buffer
	if err := feedbackTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func exampleJSON(letters []string) (string, error) {
	opts := make(model.Options, len(letters))
	for i, l := range letters {
		text := "Option " + l
		if i < len(exampleOptions) {
			text = exampleOptions[i]
		}
		opts[i] = model.Option{Key: l, Text: text}
	}
	example := model.Quiz{{
		Question: "What is Python?",
		Options:  opts,
		Answer:   letters[1],
	}}
	data, err := json.MarshalIndent(example, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal example: %w", err)
	}
	return string(data), nil
}

// sanitizeSubject flattens the subject to a single line and caps its length.
func sanitizeSubject(subject string) string {
	subject = strings.Join(strings.Fields(subject), " ")
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		subject = string([]rune(subject)[:maxSubjectLength])
	}
	return subject
}
