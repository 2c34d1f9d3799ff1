package quiz

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/quizgene/internal/model"
)

// fakeModel returns canned replies in order and records the prompts it saw.
type fakeModel struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("fakeModel: no reply left")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

const twoPlusTwoJSON = `[{"question":"2+2?","options":{"A":"3","B":"4","C":"5","D":"6"},"answer":"B"}]`

func newTestPipeline(m Model, input string) (*Pipeline, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := model.QuizConfig{NumQuestions: 1, NumOptions: 4, Extractor: "balanced"}
	return NewPipeline(m, strings.NewReader(input), &out, cfg), &out
}

func TestPipelineRun(t *testing.T) {
	m := &fakeModel{replies: []string{
		"Sure! Here is your quiz:\n```json\n" + twoPlusTwoJSON + "\n```\nGood luck [really]!",
		"- Review addition tables",
	}}
	p, out := newTestPipeline(m, "b\n")

	sess, err := p.Run(context.Background(), "Math")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.Subject != "Math" || sess.Score != 1 || sess.Total != 1 {
		t.Errorf("session = %+v", sess)
	}

	if len(m.prompts) != 2 {
		t.Fatalf("model called %d times, want 2", len(m.prompts))
	}
	if !strings.Contains(m.prompts[0], "questions on Math") {
		t.Errorf("first prompt should name the subject:\n%s", m.prompts[0])
	}
	for _, want := range []string{`"your_answer": "B"`, `"correct_answer": "B"`, "scored 1/1"} {
		if !strings.Contains(m.prompts[1], want) {
			t.Errorf("feedback prompt missing %q:\n%s", want, m.prompts[1])
		}
	}

	text := out.String()
	for _, want := range []string{"Generating 1 question", "Q1: 2+2?", "✅ Correct!", "Your score: 1/1", "- Review addition tables"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestPipelineNoJSON(t *testing.T) {
	m := &fakeModel{replies: []string{"I cannot comply."}}
	p, out := newTestPipeline(m, "b\n")

	_, err := p.Run(context.Background(), "Math")
	var xerr *ExtractError
	if !errors.As(err, &xerr) {
		t.Fatalf("Run() error = %v, want *ExtractError", err)
	}
	if len(m.prompts) != 1 {
		t.Errorf("model called %d times, want 1", len(m.prompts))
	}
	if strings.Contains(out.String(), "Q1:") {
		t.Error("no quiz should be administered")
	}

	var diag bytes.Buffer
	if !Diagnose(context.Background(), &diag, err) {
		t.Fatal("Diagnose should recognize *ExtractError")
	}
	if !strings.Contains(diag.String(), "did not return a JSON array") || !strings.Contains(diag.String(), "I cannot comply.") {
		t.Errorf("diagnostic = %q", diag.String())
	}
}

func TestPipelineParseError(t *testing.T) {
	m := &fakeModel{replies: []string{`Here: [{"question": "x",}]`}}
	p, _ := newTestPipeline(m, "")

	_, err := p.Run(context.Background(), "Math")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Run() error = %v, want *ParseError", err)
	}
	if perr.Candidate != `[{"question": "x",}]` {
		t.Errorf("Candidate = %q", perr.Candidate)
	}

	var diag bytes.Buffer
	Diagnose(context.Background(), &diag, err)
	if !strings.Contains(diag.String(), "Failed to parse quiz JSON") || !strings.Contains(diag.String(), "Raw data: "+perr.Candidate) {
		t.Errorf("diagnostic = %q", diag.String())
	}
}

func TestPipelineMalformedRecord(t *testing.T) {
	m := &fakeModel{replies: []string{`[{"question":"x"}]`}}
	p, out := newTestPipeline(m, "A\n")

	_, err := p.Run(context.Background(), "Math")
	var rerr *RecordError
	if !errors.As(err, &rerr) {
		t.Fatalf("Run() error = %v, want *RecordError", err)
	}
	if strings.Contains(out.String(), "Q1:") {
		t.Error("no quiz should be administered")
	}

	var diag bytes.Buffer
	Diagnose(context.Background(), &diag, err)
	if !strings.Contains(diag.String(), "Malformed question record: question 1: missing options") {
		t.Errorf("diagnostic = %q", diag.String())
	}
}

func TestPipelineModelError(t *testing.T) {
	boom := errors.New("quota exceeded")
	m := &fakeModel{err: boom}
	p, _ := newTestPipeline(m, "")

	_, err := p.Run(context.Background(), "Math")
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want wrapped %v", err, boom)
	}
	var merr *ModelError
	if !errors.As(err, &merr) || merr.Stage != "generate quiz" {
		t.Fatalf("Run() error = %v, want *ModelError for quiz generation", err)
	}

	var diag bytes.Buffer
	Diagnose(context.Background(), &diag, err)
	if !strings.Contains(diag.String(), "Model request failed: generate quiz: quota exceeded") {
		t.Errorf("diagnostic = %q", diag.String())
	}
	if Diagnose(context.Background(), &bytes.Buffer{}, errors.New("other")) {
		t.Error("Diagnose should not recognize unrelated errors")
	}
}

func TestPipelineFeedbackIsVerbatim(t *testing.T) {
	feedback := "not bullets at all {\"json\": [maybe]}"
	m := &fakeModel{replies: []string{twoPlusTwoJSON, feedback}}
	p, out := newTestPipeline(m, "Z\n")

	sess, err := p.Run(context.Background(), "Math")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.Score != 0 {
		t.Errorf("Score = %d, want 0", sess.Score)
	}
	if !strings.Contains(out.String(), feedback+"\n") {
		t.Errorf("feedback not printed verbatim:\n%s", out.String())
	}
}

func TestPipelineNumericOptions(t *testing.T) {
	m := &fakeModel{replies: []string{
		`[{"question":"2+2?","options":{"A":3,"B":4,"C":5,"D":6},"answer":"B"}]`,
		"- ok",
	}}
	p, out := newTestPipeline(m, "b\n")

	sess, err := p.Run(context.Background(), "Math")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.Score != 1 {
		t.Errorf("Score = %d, want 1", sess.Score)
	}
	if !strings.Contains(out.String(), "  B. 4\n") {
		t.Errorf("numeric option not shown:\n%s", out.String())
	}
}

func TestPipelineNonObjectRecord(t *testing.T) {
	m := &fakeModel{replies: []string{`Here you go: ["a", "b"]`}}
	p, _ := newTestPipeline(m, "")

	_, err := p.Run(context.Background(), "Math")
	var rerr *RecordError
	if !errors.As(err, &rerr) {
		t.Fatalf("Run() error = %v, want *RecordError", err)
	}

	var diag bytes.Buffer
	Diagnose(context.Background(), &diag, err)
	if !strings.Contains(diag.String(), "Malformed question record: question 1: not a question object") {
		t.Errorf("diagnostic = %q", diag.String())
	}
}

func TestPipelineGreedyExtractor(t *testing.T) {
	m := &fakeModel{replies: []string{twoPlusTwoJSON + "\nSee [1]."}}
	var out bytes.Buffer
	p := NewPipeline(m, strings.NewReader("b\n"), &out, model.QuizConfig{NumQuestions: 1, Extractor: "greedy"})

	_, err := p.Run(context.Background(), "Math")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("Run() error = %v, want *ParseError from the greedy span", err)
	}
}

func TestAskSubject(t *testing.T) {
	p, out := newTestPipeline(&fakeModel{}, "  Organic chemistry \n")
	subject, err := p.AskSubject(context.Background())
	if err != nil {
		t.Fatalf("AskSubject: %v", err)
	}
	if subject != "Organic chemistry" {
		t.Errorf("AskSubject() = %q", subject)
	}
	if !strings.Contains(out.String(), "Enter a subject") {
		t.Errorf("prompt not shown: %q", out.String())
	}

	p, _ = newTestPipeline(&fakeModel{}, "\n")
	if _, err := p.AskSubject(context.Background()); !errors.Is(err, ErrEmptySubject) {
		t.Errorf("AskSubject() error = %v, want ErrEmptySubject", err)
	}
}

func TestAskSubjectThenAnswersShareInput(t *testing.T) {
	m := &fakeModel{replies: []string{twoPlusTwoJSON, "- ok"}}
	p, _ := newTestPipeline(m, "Math\nb\n")

	subject, err := p.AskSubject(context.Background())
	if err != nil {
		t.Fatalf("AskSubject: %v", err)
	}
	sess, err := p.Run(context.Background(), subject)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.Score != 1 {
		t.Errorf("Score = %d, want 1", sess.Score)
	}
}

func TestPipelineEmptySubject(t *testing.T) {
	m := &fakeModel{}
	p, _ := newTestPipeline(m, "")
	if _, err := p.Run(context.Background(), "   "); !errors.Is(err, ErrEmptySubject) {
		t.Errorf("Run() error = %v, want ErrEmptySubject", err)
	}
	if len(m.prompts) != 0 {
		t.Error("model should not be called without a subject")
	}
}
