// Package export renders quiz results as JSON, YAML or a plain text report.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/wordquiz/internal/quiz"
)

var (
	// ErrUnknownFormat is returned for a format other than json, yaml or text.
	ErrUnknownFormat = errors.New("unknown export format")

	// ErrEmptyReport is returned when a report has no outcomes.
	ErrEmptyReport = errors.New("empty report: no answers to export")
)

// Format names an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts json, yaml (or yml) and text (or txt); empty is json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml"
	case FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Report is one finished (or abandoned) quiz.
type Report struct {
	Title       string         `json:"title,omitempty" yaml:"title,omitempty"`
	Outcomes    []quiz.Outcome `json:"outcomes" yaml:"outcomes"`
	Score       quiz.Score     `json:"score" yaml:"score"`
	GeneratedAt time.Time      `json:"generatedAt" yaml:"generatedAt"`
}

// NewReport builds a report from a session's outcomes.
func NewReport(title string, s *quiz.Session) Report {
	return Report{
		Title:       title,
		Outcomes:    s.Outcomes(),
		Score:       s.Score(),
		GeneratedAt: time.Now().UTC(),
	}
}

// Normalize re-checks every answer and recomputes the score, so a report
// posted by a client cannot claim a score its answers do not support.
func (r Report) Normalize() Report {
	outcomes := make([]quiz.Outcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		o.Correct = !o.Skipped && quiz.Matches(o.Given, o.Expected)
		outcomes[i] = o
	}
	r.Outcomes = outcomes

	total := r.Score.Total
	if total < len(r.Outcomes) {
		total = len(r.Outcomes)
	}
	r.Score = quiz.Summarize(r.Outcomes, total)
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	return r
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	if len(r.Outcomes) == 0 {
		return ErrEmptyReport
	}
	switch f {
	case FormatJSON:
		return JSON(w, r)
	case FormatYAML:
		return YAML(w, r)
	case FormatText:
		return Text(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// JSON writes r as indented JSON.
func JSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

// YAML writes r as a YAML document.
func YAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("export yaml: %w", err)
	}
	return enc.Close()
}

// Text writes a human-readable report: the summary, then mistakes, then
// skipped questions, then correct answers.
func Text(w io.Writer, r Report) error {
	var b strings.Builder

	title := r.Title
	if title == "" {
		title = "Quiz report"
	}
	fmt.Fprintf(&b, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
	fmt.Fprintf(&b, "Score: %d/%d correct (%.0f%%), %d incorrect, %d skipped\n",
		r.Score.Correct, r.Score.Total, r.Score.Percent, r.Score.Incorrect, r.Score.Skipped)

	var wrong, skipped, right []quiz.Outcome
	for _, o := range r.Outcomes {
		switch {
		case o.Skipped:
			skipped = append(skipped, o)
		case o.Correct:
			right = append(right, o)
		default:
			wrong = append(wrong, o)
		}
	}

	section(&b, "Mistakes", wrong, func(o quiz.Outcome) string {
		return fmt.Sprintf("%s: answered %q, expected %q", label(o), o.Given, o.Expected)
	})
	section(&b, "Skipped", skipped, func(o quiz.Outcome) string {
		return fmt.Sprintf("%s: %s", label(o), o.Expected)
	})
	section(&b, "Correct", right, func(o quiz.Outcome) string {
		return fmt.Sprintf("%s: %s", label(o), o.Expected)
	})

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("export text: %w", err)
	}
	return nil
}

func section(b *strings.Builder, name string, outcomes []quiz.Outcome, line func(quiz.Outcome) string) {
	if len(outcomes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d)\n", name, len(outcomes))
	for _, o := range outcomes {
		fmt.Fprintf(b, "  - %s\n", line(o))
	}
}

func label(o quiz.Outcome) string {
	prompt := o.Prompt
	if prompt == "" {
		prompt = o.Entry.Unknown
	}
	if o.Entry.Transliteration != "" {
		return fmt.Sprintf("%s [%s]", prompt, o.Entry.Transliteration)
	}
	return prompt
}
