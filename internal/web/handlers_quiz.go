package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/wordquiz/internal/export"
	"github.com/JonMunkholm/wordquiz/internal/logging"
	"github.com/JonMunkholm/wordquiz/internal/speech"
)

// maxSpeakRunes bounds the text of one speak request.
const maxSpeakRunes = 500

// handleExport renders a posted quiz report as a downloadable document.
// ?format= selects json (default), yaml or text.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var report export.Report
	if err := decodeJSON(w, r, &report); err != nil {
		respondError(w, r, err)
		return
	}
	report = report.Normalize()

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quiz-report.%s"`, fileExt(format)))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("write export", "error", err)
	}
}

func fileExt(f export.Format) string {
	if f == export.FormatText {
		return "txt"
	}
	return string(f)
}

// handleLanguages lists the study language catalogue.
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"languages": speech.Catalogue()})
}

// handleVoices lists the voices of the speech backend.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.voices.ListVoices(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if voices == nil {
		voices = []speech.Voice{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"voices": voices})
}

type speakRequest struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// handleSpeak speaks a word in the voice best matching the locale hint.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	text := strings.TrimSpace(req.Text)
	switch {
	case text == "":
		respondError(w, r, badRequest("text is required"))
		return
	case utf8.RuneCountInString(text) > maxSpeakRunes:
		respondError(w, r, badRequest("text longer than %d characters", maxSpeakRunes))
		return
	}

	if err := s.voices.Speak(r.Context(), text, req.Locale); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
