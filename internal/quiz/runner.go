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
	"github.com/pavelanni/quizgene/internal/model"
)

// State is the position of a Runner in the administration loop.
type State int

const (
	NotStarted State = iota
	Presenting
	Awaiting
	Scored
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Presenting:
		return "presenting"
	case Awaiting:
		return "awaiting"
	case Scored:
		return "scored"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Runner administers a quiz over a line-oriented terminal.
type Runner struct {
	in    *bufio.Reader
	out   io.Writer
	state State
}

// NewRunner creates a runner reading answers from in and writing to out.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{in: bufio.NewReader(in), out: out}
}

// State returns the current state.
func (r *Runner) State() State { return r.state }

// Run asks every question in sess.Quiz in order and records the results,
// score and total on sess. Any input counts as an answer; one that is not an
// option key is simply wrong.
func (r *Runner) Run(ctx context.Context, sess *model.Session) error {
	sess.Total = len(sess.Quiz)
	for i, q := range sess.Quiz {
		if err := ctx.Err(); err != nil {
			return err
		}
		correct := normalize(q.Answer)
		if !q.Options.Has(correct) {
			return &RecordError{Index: i, Reason: "answer " + q.Answer + " is not one of the options"}
		}

		r.state = Presenting
		r.present(ctx, i, q)

		r.state = Awaiting
		fmt.Fprint(r.out, i18n.Td(ctx, "AnswerPrompt", map[string]any{
			"Letters": strings.Join(q.Options.Keys(), "/"),
		}))
		line, err := ReadLine(r.in)
		if err != nil {
			return fmt.Errorf("read answer %d: %w", i+1, err)
		}
		answer := normalize(line)

		r.state = Scored
		if answer == correct {
			sess.Score++
			fmt.Fprintln(r.out, i18n.T(ctx, "Correct"))
		} else {
			fmt.Fprintln(r.out, i18n.Td(ctx, "Wrong", map[string]any{"Answer": correct}))
		}
		fmt.Fprintln(r.out)

		sess.Results = append(sess.Results, model.AnswerResult{
			Question:      q.Question,
			YourAnswer:    answer,
			CorrectAnswer: correct,
		})
		slog.Debug("answer recorded",
			"session", sess.ID,
			"question", i+1,
			"answer", answer,
			"correct", answer == correct,
		)
	}

	r.state = Finished
	fmt.Fprintln(r.out, i18n.Td(ctx, "QuizFinished", map[string]any{
		"Score": sess.Score,
		"Total": sess.Total,
	}))
	return nil
}

func (r *Runner) present(ctx context.Context, i int, q model.Question) {
	fmt.Fprintln(r.out, i18n.Td(ctx, "QuestionHeader", map[string]any{"N": i + 1, "Text": q.Question}))
	for _, opt := range q.Options {
		fmt.Fprintf(r.out, "  %s. %s\n", opt.Key, opt.Text)
	}
}

// ReadLine reads one line from r without its line ending. A final line with
// no newline is returned as-is; end of input before any text is
// io.ErrUnexpectedEOF.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
