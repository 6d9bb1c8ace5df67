package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/wordquiz/internal/config"
	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/quiz"
	"github.com/JonMunkholm/wordquiz/internal/speech"
	"github.com/JonMunkholm/wordquiz/internal/store"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

const lessonCSV = "word,translation,transliteration\nпривет,hello,privet\ncasa,house,\nsolo,,\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			PreviewRows:   10,
		},
		Rate:     config.RateLimitConfig{Enabled: false, RequestsPerMinute: 100, ImportLimit: 20},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type testServer struct {
	*Server
	history *store.Memory
	voices  *speech.NopProvider
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	history := store.NewMemory(10)
	voices := speech.NewNopProvider(speech.Voice{ID: "it", Name: "Italian", Locale: "it"})
	svc := core.NewService(core.Options{
		History:     history,
		Limiter:     core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		MaxFileSize: cfg.Import.MaxFileSize,
		PreviewRows: cfg.Import.PreviewRows,
	})
	s := NewServer(cfg, svc, voices)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return &testServer{Server: s, history: history, voices: voices}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.Router().ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mpw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mpw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mpw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `action="/import"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestAPIImport_CSV(t *testing.T) {
	ts := newTestServer(t, testConfig())
	req := multipartRequest(t, "/api/import", nil, "lesson.csv", lessonCSV)
	req.RemoteAddr = "192.0.2.10:4000"
	rec := ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res core.ImportResult
	decodeBody(t, rec, &res)
	assert.Equal(t, "lesson.csv", res.Source)
	assert.Equal(t, "text", res.Mode)
	assert.True(t, res.Header.Present)
	assert.Equal(t, []vocab.WordEntry{
		{Unknown: "привет", Translation: "hello", Transliteration: "privet"},
		{Unknown: "casa", Translation: "house"},
	}, res.Entries)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, vocab.ReasonMissingTranslation, res.Rejected[0].Reason)

	recs, err := ts.history.Recent(t.Context(), 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "192.0.2.10", recs[0].ClientIP)
	assert.Equal(t, 2, recs[0].Entries)
}

func TestAPIImport_PastedText(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(multipartRequest(t, "/api/import", map[string]string{"text": "cane\tdog\n"}, "", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res core.ImportResult
	decodeBody(t, rec, &res)
	assert.Equal(t, "pasted text", res.Source)
	assert.Equal(t, []vocab.WordEntry{{Unknown: "cane", Translation: "dog"}}, res.Entries)
}

func TestAPIImport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		req      func(t *testing.T) *http.Request
		wantCode int
		wantErr  string
	}{
		{
			name:     "no file",
			req:      func(t *testing.T) *http.Request { return multipartRequest(t, "/api/import", nil, "", "") },
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name: "no entries",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/import", nil, "empty.csv", "word,translation\nsolo,\n")
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "FILE005",
		},
		{
			name: "bad mode",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "/api/import", map[string]string{"mode": "pdf"}, "x.csv", lessonCSV)
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("x"))
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name: "remote disabled",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/import/url", strings.NewReader(`{"locator":"https://example.com/a.csv"}`))
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "NET002",
		},
		{
			name: "empty locator",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/import/url", strings.NewReader(`{"locator":" "}`))
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig())
			rec := ts.do(tt.req(t))
			assert.Equal(t, tt.wantCode, rec.Code)

			var body ErrorResponse
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.wantErr, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestAPIImport_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 64
	ts := newTestServer(t, cfg)

	rec := ts.do(multipartRequest(t, "/api/import", nil, "big.csv", strings.Repeat("casa,house\n", 20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, "FILE001", body.Code)
}

func TestImportForm_HTML(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(multipartRequest(t, "/import", nil, "lesson.csv", lessonCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>привет</td>")
	assert.Contains(t, rec.Body.String(), "Dropped rows (1)")

	rec = ts.do(multipartRequest(t, "/import", nil, "", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "FILE004")
}

func TestPreview(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(multipartRequest(t, "/api/preview?rows=1", nil, "lesson.csv", lessonCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res core.PreviewResult
	decodeBody(t, rec, &res)
	assert.Len(t, res.Sample, 1)
	assert.Equal(t, 2, res.Stats.Entries)
	assert.Equal(t, "word", res.Labels["unknown"])

	assert.Equal(t, 0, ts.history.Len(), "preview is not recorded")
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imports":[]}`, rec.Body.String())

	for range 3 {
		require.Equal(t, http.StatusOK, ts.do(multipartRequest(t, "/api/import", nil, "lesson.csv", lessonCSV)).Code)
	}
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/history?limit=2", nil))
	var body struct {
		Imports []store.ImportRecord `json:"imports"`
	}
	decodeBody(t, rec, &body)
	assert.Len(t, body.Imports, 2)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, testConfig())
	report := map[string]any{
		"title": "Lesson 1",
		"outcomes": []quiz.Outcome{
			{Entry: vocab.WordEntry{Unknown: "casa", Translation: "house"}, Prompt: "casa", Expected: "house", Given: "House", Correct: false},
			{Entry: vocab.WordEntry{Unknown: "cane", Translation: "dog"}, Prompt: "cane", Expected: "dog", Given: "cat", Correct: true},
		},
	}
	body, err := json.Marshal(report)
	require.NoError(t, err)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/export?format=text", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "quiz-report.txt")
	assert.Contains(t, rec.Body.String(), "Score: 1/2 correct (50%)")
	assert.Contains(t, rec.Body.String(), `cane: answered "cat", expected "dog"`)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/export?format=pdf", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQ002")

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/export", strings.NewReader(`{"outcomes":[]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQ003")
}

func TestSpeech(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/voices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"locale":"it"`)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/languages", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Italian"`)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(`{"text":"ciao","locale":"it-IT"}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, ts.voices.Requests(), 1)
	assert.Equal(t, "ciao", ts.voices.Requests()[0].Text)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(`{"text":"konnichiwa","locale":"ja"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "SPK001")

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/speak", strings.NewReader(`{"text":"  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string                   `json:"status"`
		Imports core.ImportLimiterStatus `json:"imports"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Imports.MaxConcurrent)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	ts := newTestServer(t, cfg)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, ts.do(req).Code)

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	ts := newTestServer(t, cfg)

	first := ts.do(multipartRequest(t, "/api/import", nil, "lesson.csv", lessonCSV))
	assert.Equal(t, http.StatusOK, first.Code)

	second := ts.do(multipartRequest(t, "/api/import", nil, "lesson.csv", lessonCSV))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "RATE001")

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/api/history", nil)).Code)
}

func TestRateLimiter_Window(t *testing.T) {
	now := time.Unix(0, 0)
	rl := &rateLimiter{
		visitors: map[string]*visitor{},
		rate:     2,
		window:   time.Minute,
		now:      func() time.Time { return now },
		done:     make(chan struct{}),
	}
	assert.True(t, rl.allow("a"))
	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))
	assert.True(t, rl.allow("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.allow("a"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor("FILE006"))
	assert.Equal(t, http.StatusBadGateway, statusFor("NET001"))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor("UPL002"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("ERR000"))
}
