package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/logging"
	"github.com/JonMunkholm/wordquiz/internal/source"
	"github.com/JonMunkholm/wordquiz/internal/store"
	"github.com/JonMunkholm/wordquiz/internal/web/templates"
)

const (
	// multipartMemory is the part of a form kept in memory; the rest spills
	// to temporary files.
	multipartMemory = 8 << 20

	// formOverhead allows for multipart boundaries and the other fields on
	// top of the file itself.
	formOverhead = 1 << 20

	maxJSONBody = 1 << 20
)

// upload is what a multipart import form carried: either dataset bytes or
// a locator to fetch.
type upload struct {
	name    string
	data    []byte
	mode    source.Mode
	locator string
}

// readUpload reads the "file" part, falling back to the "text" and
// "locator" fields. The mode comes from the "mode" field when present,
// otherwise from the file extension.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	limit := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return upload{}, core.ErrFileTooLarge
		}
		return upload{}, badRequest("form: %v", err)
	}

	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			return upload{}, badRequest("read file: %v", err)
		}
		mode := source.ModeForExt(filepath.Ext(header.Filename))
		if v := r.FormValue("mode"); v != "" {
			if mode, err = source.ParseMode(v); err != nil {
				return upload{}, badRequest("%v", err)
			}
		}
		return upload{name: header.Filename, data: data, mode: mode}, nil

	case errors.Is(err, http.ErrMissingFile):
		if text := r.FormValue("text"); strings.TrimSpace(text) != "" {
			return upload{name: "pasted text", data: []byte(text), mode: source.ModeText}, nil
		}
		if loc := strings.TrimSpace(r.FormValue("locator")); loc != "" {
			return upload{locator: loc}, nil
		}
		return upload{}, core.ErrNoFile

	default:
		return upload{}, badRequest("file: %v", err)
	}
}

func (s *Server) runUpload(r *http.Request, u upload) (*core.ImportResult, error) {
	if u.locator != "" {
		return s.service.ImportLocator(r.Context(), u.locator)
	}
	return s.service.ImportBytes(r.Context(), u.name, u.data, u.mode)
}

// handleIndex renders the import form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, templates.Layout("Import vocabulary",
		templates.IndexPage(s.cfg.Import.MaxFileSize, s.service.RemoteEnabled())))
}

// handleImportForm imports a browser form post and renders the result page.
func (s *Server) handleImportForm(w http.ResponseWriter, r *http.Request) {
	u, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := s.runUpload(r, u)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, templates.Layout("Import complete", templates.ImportResultPage(res)))
}

// handleImport imports a multipart upload and returns the ImportResult.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	u, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	res, err := s.runUpload(r, u)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type importURLRequest struct {
	Locator string `json:"locator"`
}

// handleImportURL imports the dataset at a locator.
func (s *Server) handleImportURL(w http.ResponseWriter, r *http.Request) {
	var req importURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Locator) == "" {
		respondError(w, r, badRequest("locator is required"))
		return
	}
	res, err := s.service.ImportLocator(r.Context(), strings.TrimSpace(req.Locator))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handlePreview reports how an upload would be imported. ?rows=n sets the
// sample size.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	u, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if u.locator != "" {
		respondError(w, r, badRequest("preview needs a file or pasted text"))
		return
	}
	res, err := s.service.Preview(r.Context(), u.name, u.data, u.mode, parseIntParam(r, "rows", 0))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleHistory lists recent imports, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.History(r.Context(), parseIntParam(r, "limit", store.DefaultRecentLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if recs == nil {
		recs = []store.ImportRecord{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"imports": recs})
}

// handleHealth reports liveness and the import limiter state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequest("body: %v", err)
	}
	return nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}
