package vocab

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role is the semantic purpose of a column.
type Role int

const (
	RoleUnknown Role = iota
	RoleTranslation
	RoleTransliteration
)

// Roles lists every role in resolution order.
var Roles = []Role{RoleUnknown, RoleTranslation, RoleTransliteration}

func (r Role) String() string {
	switch r {
	case RoleUnknown:
		return "unknown"
	case RoleTranslation:
		return "translation"
	case RoleTransliteration:
		return "transliteration"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Header terms per role. Matching is by substring so that labels such as
// "Unknown words" or "English translation" still match. The cost is false
// hits inside ordinary vocabulary: "word" matches "sword" and "password",
// which makes a first data row holding them read as a header. Very short
// terms ("mot") are left out for that reason; Options.Strict narrows the
// rest by requiring both the word and translation roles to match.
var (
	unknownTerms = []string{
		"unknown", "unknown word", "word", "vocabulary",
		"parola", "parola sconosciuta", "sconosciuta", "vocabolo", "vocabolario",
		"palabra", "palavra", "vocable",
	}
	translationTerms = []string{
		"translation", "meaning", "definition",
		"traduzione", "significato",
		"traduccion", "significado", "traduction", "signification", "ubersetzung", "traducao",
	}
	transliterationTerms = []string{
		"transliteration", "translit", "romanization", "romanisation", "pronunciation",
		"traslitterazione", "romanizzazione", "pronuncia",
		"transliteracion", "translitteration", "transliteracao",
	}
)

var defaultVocabulary = NewVocabulary(unknownTerms, translationTerms, transliterationTerms)

// Vocabulary holds the folded header keywords of each role. It is built
// once and only read afterwards, so one value is safely shared by
// concurrent imports.
type Vocabulary struct {
	terms [3][]string
}

// DefaultVocabulary returns the built-in English/Italian keyword tables
// (with a few Spanish, French, German and Portuguese terms).
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary
}

// NewVocabulary folds and de-duplicates the given terms.
func NewVocabulary(unknown, translation, transliteration []string) *Vocabulary {
	v := &Vocabulary{}
	v.terms[RoleUnknown] = foldTerms(unknown)
	v.terms[RoleTranslation] = foldTerms(translation)
	v.terms[RoleTransliteration] = foldTerms(transliteration)
	return v
}

func foldTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		k := Fold(t)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Keywords returns a copy of the folded terms for role.
func (v *Vocabulary) Keywords(role Role) []string {
	if role < RoleUnknown || role > RoleTransliteration {
		return nil
	}
	return append([]string(nil), v.terms[role]...)
}

// Merge returns a new vocabulary holding the terms of both.
func (v *Vocabulary) Merge(other *Vocabulary) *Vocabulary {
	if other == nil {
		return v
	}
	return NewVocabulary(
		append(v.Keywords(RoleUnknown), other.terms[RoleUnknown]...),
		append(v.Keywords(RoleTranslation), other.terms[RoleTranslation]...),
		append(v.Keywords(RoleTransliteration), other.terms[RoleTransliteration]...),
	)
}

// Matches reports whether a folded key matches one of role's keywords: the
// key equals the keyword, has it as a whitespace-separated token, or
// contains it as a substring.
func (v *Vocabulary) Matches(key string, role Role) bool {
	if key == "" || role < RoleUnknown || role > RoleTransliteration {
		return false
	}
	tokens := strings.Fields(key)
	for _, kw := range v.terms[role] {
		if key == kw || containsToken(tokens, kw) || strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func containsToken(tokens []string, kw string) bool {
	for _, t := range tokens {
		if t == kw {
			return true
		}
	}
	return false
}

// vocabularyFile is the YAML shape of a keyword file:
//
//	unknown: [wort, mot]
//	translation: [bedeutung]
//	transliteration: [lesung]
type vocabularyFile struct {
	Unknown         []string `yaml:"unknown"`
	Translation     []string `yaml:"translation"`
	Transliteration []string `yaml:"transliteration"`
}

// LoadVocabulary reads extra keywords from YAML and merges them into the
// defaults.
func LoadVocabulary(r io.Reader) (*Vocabulary, error) {
	var file vocabularyFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode keyword file: %w", err)
	}
	extra := NewVocabulary(file.Unknown, file.Translation, file.Transliteration)
	return DefaultVocabulary().Merge(extra), nil
}
