package core

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/wordquiz/internal/config"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

// NewNormalizer builds the normalizer described by cfg. The keyword file,
// when set, extends the built-in header vocabulary.
func NewNormalizer(cfg config.ImportConfig) (*vocab.Normalizer, error) {
	opts := vocab.Options{
		Strict:              cfg.Strict,
		KeepRepeatedHeaders: cfg.KeepRepeatedHeaders,
	}
	if cfg.KeywordsFile != "" {
		f, err := os.Open(cfg.KeywordsFile)
		if err != nil {
			return nil, fmt.Errorf("open keyword file: %w", err)
		}
		defer f.Close()

		v, err := vocab.LoadVocabulary(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.KeywordsFile, err)
		}
		opts.Vocabulary = v
	}
	return vocab.New(opts), nil
}
