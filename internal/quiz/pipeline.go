package quiz

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pavelanni/quizgene/internal/i18n"
	"github.com/pavelanni/quizgene/internal/llm/prompts"
	"github.com/pavelanni/quizgene/internal/model"
)

// ErrEmptySubject is returned when the user gives no subject.
var ErrEmptySubject = errors.New("subject is required")

// Model is a text-completion endpoint.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generate asks m for a quiz on subject and returns it parsed and validated.
func Generate(ctx context.Context, m Model, extract Extractor, subject string, numQuestions, numOptions int) (model.Quiz, error) {
	prompt, err := prompts.BuildQuizPrompt(subject, numQuestions, numOptions)
	if err != nil {
		return nil, fmt.Errorf("build quiz prompt: %w", err)
	}

	raw, err := m.Generate(ctx, prompt)
	if err != nil {
		return nil, &ModelError{Stage: "generate quiz", Err: err}
	}

	if extract == nil {
		extract = ExtractBalanced
	}
	candidate, err := extract(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}

	q, err := Parse(candidate)
	if err != nil {
		return nil, err
	}
	if err := Validate(q); err != nil {
		return nil, err
	}
	if numQuestions > 0 && len(q) != numQuestions {
		slog.Warn("model returned a different number of questions", "want", numQuestions, "got", len(q))
	}
	return q, nil
}

// RequestFeedback asks m for study suggestions based on the finished session.
// The reply is returned verbatim.
func RequestFeedback(ctx context.Context, m Model, sess *model.Session) (string, error) {
	prompt, err := prompts.BuildFeedbackPrompt(sess.Report())
	if err != nil {
		return "", fmt.Errorf("build feedback prompt: %w", err)
	}
	text, err := m.Generate(ctx, prompt)
	if err != nil {
		return "", &ModelError{Stage: "generate feedback", Err: err}
	}
	return text, nil
}

// Pipeline runs one interactive quiz session end to end.
type Pipeline struct {
	gen     Model
	extract Extractor
	in      *bufio.Reader
	out     io.Writer
	cfg     model.QuizConfig
}

// NewPipeline wires a pipeline to a model and a terminal.
func NewPipeline(m Model, in io.Reader, out io.Writer, cfg model.QuizConfig) *Pipeline {
	return &Pipeline{
		gen:     m,
		extract: ExtractorByName(cfg.Extractor),
		in:      bufio.NewReader(in),
		out:     out,
		cfg:     cfg,
	}
}

// AskSubject prompts for the quiz subject.
func (p *Pipeline) AskSubject(ctx context.Context) (string, error) {
	fmt.Fprint(p.out, i18n.T(ctx, "SubjectPrompt"))
	line, err := ReadLine(p.in)
	if err != nil {
		return "", fmt.Errorf("read subject: %w", err)
	}
	subject := strings.TrimSpace(line)
	if subject == "" {
		return "", ErrEmptySubject
	}
	return subject, nil
}

// Run generates a quiz on subject, administers it, and prints the model's
// suggestions. The first error ends the session.
func (p *Pipeline) Run(ctx context.Context, subject string) (*model.Session, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrEmptySubject
	}

	sess := model.NewSession(subject)
	log := slog.With("session", sess.ID.String())

	numQuestions := p.cfg.NumQuestions
	if numQuestions <= 0 {
		numQuestions = prompts.DefaultQuestions
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, i18n.Tp(ctx, "GeneratingQuiz", numQuestions))
	log.Info("generating quiz", "subject", subject, "questions", numQuestions)

	q, err := Generate(ctx, p.gen, p.extract, subject, numQuestions, p.cfg.NumOptions)
	if err != nil {
		log.Error("quiz generation failed", "error", err)
		return sess, err
	}
	sess.Quiz = q

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, i18n.T(ctx, "QuizStarting"))
	fmt.Fprintln(p.out)
	if err := NewRunner(p.in, p.out).Run(ctx, sess); err != nil {
		return sess, err
	}
	log.Info("quiz finished", "score", sess.Score, "total", sess.Total)

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, i18n.T(ctx, "Analyzing"))
	feedback, err := RequestFeedback(ctx, p.gen, sess)
	if err != nil {
		return sess, err
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, i18n.T(ctx, "Suggestions"))
	fmt.Fprintln(p.out, feedback)
	return sess, nil
}

// Diagnose prints a labeled message for err. Extraction and parse failures
// include the raw model output or candidate. It reports false for errors it
// does not recognize.
func Diagnose(ctx context.Context, w io.Writer, err error) bool {
	var (
		extractErr *ExtractError
		parseErr   *ParseError
		recordErr  *RecordError
		modelErr   *ModelError
	)
	switch {
	case errors.As(err, &extractErr):
		fmt.Fprintln(w, i18n.T(ctx, "ErrNoJSON"))
		fmt.Fprintln(w, extractErr.Raw)
	case errors.As(err, &parseErr):
		fmt.Fprintln(w, i18n.Td(ctx, "ErrParse", map[string]any{"Error": parseErr.Err}))
		fmt.Fprintln(w, i18n.T(ctx, "RawData"), parseErr.Candidate)
	case errors.As(err, &recordErr):
		fmt.Fprintln(w, i18n.Td(ctx, "ErrRecord", map[string]any{"Error": recordErr}))
	case errors.As(err, &modelErr):
		fmt.Fprintln(w, i18n.Td(ctx, "ErrModel", map[string]any{"Error": modelErr}))
	case errors.Is(err, ErrEmptySubject):
		fmt.Fprintln(w, i18n.T(ctx, "ErrSubjectRequired"))
	default:
		return false
	}
	return true
}
