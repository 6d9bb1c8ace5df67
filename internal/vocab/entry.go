package vocab

// WordEntry is one normalized vocabulary record. Unknown and Translation
// are never empty; Transliteration is optional.
type WordEntry struct {
	Unknown         string `json:"unknown"`
	Translation     string `json:"translation"`
	Transliteration string `json:"transliteration,omitempty"`
}

// HasTransliteration reports whether the optional field was provided.
func (e WordEntry) HasTransliteration() bool {
	return e.Transliteration != ""
}
