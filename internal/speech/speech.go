// Package speech describes text-to-speech backends and picks a voice for a
// language hint. Playback policy belongs to the caller.
package speech

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var (
	// ErrNoVoice is returned when no installed voice matches the hint.
	ErrNoVoice = errors.New("no voice available")

	// ErrUnavailable is returned when the backend cannot speak at all.
	ErrUnavailable = errors.New("speech unavailable")
)

// Voice is one voice offered by a provider.
type Voice struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

// Provider is a text-to-speech backend.
type Provider interface {
	ListVoices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, text, localeHint string) error
}

// Language is a catalogue entry.
type Language struct {
	Code string       `json:"code"`
	Name string       `json:"name"`
	Tag  language.Tag `json:"-"`
}

var catalogue = buildCatalogue(
	"ar", "de", "el", "en", "es", "fr", "he", "hi", "it", "ja",
	"ko", "nl", "pl", "pt", "ru", "sv", "tr", "uk", "zh",
)

func buildCatalogue(codes ...string) []Language {
	namer := display.English.Languages()
	langs := make([]Language, 0, len(codes))
	for _, c := range codes {
		tag := language.MustParse(c)
		langs = append(langs, Language{Code: c, Name: namer.Name(tag), Tag: tag})
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].Name < langs[j].Name })
	return langs
}

// Catalogue returns the languages offered for study, sorted by English name.
// The returned slice is a copy.
func Catalogue() []Language {
	out := make([]Language, len(catalogue))
	copy(out, catalogue)
	return out
}

// LookupLanguage finds a catalogue language by code or tag ("it", "it-IT").
func LookupLanguage(code string) (Language, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, false
	}
	base, _ := tag.Base()
	for _, l := range catalogue {
		if lb, _ := l.Tag.Base(); lb == base {
			return l, true
		}
	}
	return Language{}, false
}

// BestVoice picks the voice whose locale best matches hint. An empty hint
// selects the first voice.
func BestVoice(voices []Voice, hint string) (Voice, error) {
	if len(voices) == 0 {
		return Voice{}, fmt.Errorf("%w: provider has no voices", ErrNoVoice)
	}
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return voices[0], nil
	}
	want, err := language.Parse(strings.ReplaceAll(hint, "_", "-"))
	if err != nil {
		return Voice{}, fmt.Errorf("%w: bad locale %q", ErrNoVoice, hint)
	}

	tags := make([]language.Tag, len(voices))
	for i, v := range voices {
		tags[i] = language.Make(strings.ReplaceAll(v.Locale, "_", "-"))
	}
	_, idx, conf := language.NewMatcher(tags).Match(want)
	if conf == language.No {
		return Voice{}, fmt.Errorf("%w: %s", ErrNoVoice, hint)
	}
	return voices[idx], nil
}
