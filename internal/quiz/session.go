// Package quiz runs a question-and-answer session over imported entries.
//
// Answers are compared on folded text (case, accents and punctuation are
// ignored), and a translation may list alternatives separated by "/", ";"
// or ",". A Session is not safe for concurrent use.
package quiz

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

// ErrSessionDone is returned when answering after the last question.
var ErrSessionDone = errors.New("quiz session is finished")

// Direction selects which side of an entry is asked.
type Direction int

const (
	// Forward shows the unknown word and expects the translation.
	Forward Direction = iota
	// Reverse shows the translation and expects the unknown word.
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Options configures a Session.
type Options struct {
	Direction Direction

	// Shuffle asks the entries in a random order fixed by Seed.
	Shuffle bool
	Seed    uint64

	// Limit caps the number of questions; zero asks every entry.
	Limit int
}

// Outcome records the answer to one question.
type Outcome struct {
	Entry    vocab.WordEntry `json:"entry"`
	Prompt   string          `json:"prompt"`
	Expected string          `json:"expected"`
	Given    string          `json:"given,omitempty"`
	Correct  bool            `json:"correct"`
	Skipped  bool            `json:"skipped,omitempty"`
}

// Score summarizes a session.
type Score struct {
	Total     int     `json:"total"`
	Answered  int     `json:"answered"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Skipped   int     `json:"skipped"`
	Percent   float64 `json:"percent"`
}

// Session walks a fixed sequence of entries.
type Session struct {
	entries   []vocab.WordEntry
	order     []int
	pos       int
	direction Direction
	outcomes  []Outcome
}

// NewSession starts a session over entries. The slice is copied; the
// caller's entries are never modified.
func NewSession(entries []vocab.WordEntry, opts Options) *Session {
	own := make([]vocab.WordEntry, len(entries))
	copy(own, entries)

	order := make([]int, len(own))
	for i := range order {
		order[i] = i
	}
	if opts.Shuffle {
		r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	if opts.Limit > 0 && opts.Limit < len(order) {
		order = order[:opts.Limit]
	}

	return &Session{
		entries:   own,
		order:     order,
		direction: opts.Direction,
		outcomes:  make([]Outcome, 0, len(order)),
	}
}

// Len returns the number of questions in the session.
func (s *Session) Len() int { return len(s.order) }

// Done reports whether every question has been answered or skipped.
func (s *Session) Done() bool { return s.pos >= len(s.order) }

// Current returns the entry being asked, or false when the session is done.
func (s *Session) Current() (vocab.WordEntry, bool) {
	if s.Done() {
		return vocab.WordEntry{}, false
	}
	return s.entries[s.order[s.pos]], true
}

// Prompt returns the text shown for the current question.
func (s *Session) Prompt() string {
	e, ok := s.Current()
	if !ok {
		return ""
	}
	if s.direction == Reverse {
		return e.Translation
	}
	return e.Unknown
}

// Answer checks text against the current entry and advances.
func (s *Session) Answer(text string) (Outcome, error) {
	e, ok := s.Current()
	if !ok {
		return Outcome{}, ErrSessionDone
	}
	expected := s.expected(e)
	o := Outcome{
		Entry:    e,
		Prompt:   s.Prompt(),
		Expected: expected,
		Given:    text,
		Correct:  Matches(text, expected),
	}
	s.advance(o)
	return o, nil
}

// Skip records the current question as skipped and advances.
func (s *Session) Skip() (Outcome, error) {
	e, ok := s.Current()
	if !ok {
		return Outcome{}, ErrSessionDone
	}
	o := Outcome{
		Entry:    e,
		Prompt:   s.Prompt(),
		Expected: s.expected(e),
		Skipped:  true,
	}
	s.advance(o)
	return o, nil
}

// Outcomes returns a copy of the recorded outcomes in question order.
func (s *Session) Outcomes() []Outcome {
	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Score summarizes the outcomes recorded so far.
func (s *Session) Score() Score {
	return Summarize(s.outcomes, len(s.order))
}

// Summarize scores outcomes out of total questions.
func Summarize(outcomes []Outcome, total int) Score {
	sc := Score{Total: total}
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			sc.Skipped++
		case o.Correct:
			sc.Correct++
		default:
			sc.Incorrect++
		}
	}
	sc.Answered = sc.Correct + sc.Incorrect
	if n := sc.Answered + sc.Skipped; n > 0 {
		sc.Percent = float64(sc.Correct) * 100 / float64(n)
	}
	return sc
}

func (s *Session) expected(e vocab.WordEntry) string {
	if s.direction == Reverse {
		return e.Unknown
	}
	return e.Translation
}

func (s *Session) advance(o Outcome) {
	s.outcomes = append(s.outcomes, o)
	s.pos++
}

// Matches reports whether given equals expected or one of its
// alternatives, ignoring case, accents and punctuation.
func Matches(given, expected string) bool {
	key := vocab.Fold(given)
	if key == "" {
		return false
	}
	if key == vocab.Fold(expected) {
		return true
	}
	for _, alt := range strings.FieldsFunc(expected, isAlternativeSep) {
		if key == vocab.Fold(alt) {
			return true
		}
	}
	return false
}

func isAlternativeSep(r rune) bool {
	return r == '/' || r == ';' || r == ','
}
