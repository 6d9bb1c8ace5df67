package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Request is a Speak call recorded by NopProvider.
type Request struct {
	Text  string
	Voice Voice
}

// NopProvider speaks nothing. It resolves the voice like a real backend
// and records each request, which makes it the provider for tests and for
// servers without a speech engine.
type NopProvider struct {
	voices []Voice

	mu       sync.Mutex
	requests []Request
}

// NewNopProvider returns a NopProvider offering voices.
func NewNopProvider(voices ...Voice) *NopProvider {
	return &NopProvider{voices: voices}
}

func (p *NopProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	out := make([]Voice, len(p.voices))
	copy(out, p.voices)
	return out, nil
}

func (p *NopProvider) Speak(ctx context.Context, text, localeHint string) error {
	v, err := BestVoice(p.voices, localeHint)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.requests = append(p.requests, Request{Text: text, Voice: v})
	p.mu.Unlock()
	return nil
}

// Requests returns the recorded Speak calls.
func (p *NopProvider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// CommandProvider drives an espeak-ng compatible command line engine.
type CommandProvider struct {
	binary string
}

// NewCommandProvider returns a provider running binary ("espeak-ng" when
// empty). It fails with ErrUnavailable when the binary is not on PATH.
func NewCommandProvider(binary string) (*CommandProvider, error) {
	if binary == "" {
		binary = "espeak-ng"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &CommandProvider{binary: path}, nil
}

func (p *CommandProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, p.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: list voices: %w", ErrUnavailable, err)
	}
	return parseVoiceTable(out), nil
}

func (p *CommandProvider) Speak(ctx context.Context, text, localeHint string) error {
	voices, err := p.ListVoices(ctx)
	if err != nil {
		return err
	}
	v, err := BestVoice(voices, localeHint)
	if err != nil {
		return err
	}
	// "--" keeps text starting with a dash from being read as a flag.
	cmd := exec.CommandContext(ctx, p.binary, "-v", v.ID, "--", text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %w: %s", ErrUnavailable, err, bytes.TrimSpace(out))
	}
	return nil
}

// parseVoiceTable reads the table printed by "espeak-ng --voices":
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
func parseVoiceTable(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		f := strings.Fields(sc.Text())
		if len(f) < 5 {
			continue
		}
		voices = append(voices, Voice{ID: f[4], Name: f[3], Locale: f[1]})
	}
	return voices
}
