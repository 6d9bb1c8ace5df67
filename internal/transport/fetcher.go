// Package transport acquires dataset bytes from a locator: an http(s) URL,
// a Google Sheets link, or (when enabled) a local file path.
//
// It decides whether the payload is a binary workbook or delimited text so
// that the caller can hand it to source.Read unchanged.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/wordquiz/internal/source"
)

var (
	// ErrFetchFailed wraps every network or filesystem failure.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUnsupportedLocator is returned for locators that are neither URLs
	// nor (when allowed) local paths.
	ErrUnsupportedLocator = errors.New("unsupported locator")

	// ErrTooLarge is returned when a payload exceeds the size limit.
	ErrTooLarge = errors.New("file too large: download exceeds size limit")
)

// DefaultMaxSize is the download limit when none is configured.
const DefaultMaxSize int64 = 20 << 20

// Payload is a fetched dataset.
type Payload struct {
	Data        []byte
	Mode        source.Mode
	Name        string
	ContentType string
}

// Fetcher retrieves payloads. The zero value is not usable; call New.
type Fetcher struct {
	client     *http.Client
	maxSize    int64
	ua         string
	localFiles bool
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithMaxSize sets the largest payload accepted, in bytes.
func WithMaxSize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithLocalFiles allows plain filesystem paths and file:// URLs.
func WithLocalFiles(allow bool) Option {
	return func(f *Fetcher) { f.localFiles = allow }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// New creates a Fetcher with defaults: 20s timeout, 20MB limit, no local files.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: 20 * time.Second},
		maxSize: DefaultMaxSize,
		ua:      "wordquiz-importer/1.0",
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch retrieves the dataset named by locator.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (Payload, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return Payload{}, fmt.Errorf("%w: empty locator", ErrUnsupportedLocator)
	}

	u, err := url.Parse(locator)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return f.fetchURL(ctx, u)
		case "file":
			if !f.localFiles {
				return Payload{}, fmt.Errorf("%w: local files are disabled", ErrUnsupportedLocator)
			}
			return f.readFile(u.Path)
		}
	}

	if f.localFiles && !strings.Contains(locator, "://") {
		return f.readFile(locator)
	}
	return Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedLocator, locator)
}

func (f *Fetcher) fetchURL(ctx context.Context, u *url.URL) (Payload, error) {
	target := sheetsExportURL(u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: new request: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.ua)

	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, fmt.Errorf("%w: unexpected status %d from %s", ErrFetchFailed, resp.StatusCode, target.Host)
	}
	if resp.ContentLength > f.maxSize {
		return Payload{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: read body: %w", ErrFetchFailed, err)
	}
	if int64(len(data)) > f.maxSize {
		return Payload{}, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxSize)
	}

	ct := resp.Header.Get("Content-Type")
	name := attachmentName(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = urlName(target)
	}

	p := Payload{
		Data:        data,
		Mode:        urlMode(target, ct),
		Name:        name,
		ContentType: ct,
	}
	f.logger.Debug("transport: fetched",
		"host", target.Host, "status", resp.StatusCode,
		"size", len(data), "mode", p.Mode.String())
	return p, nil
}

func (f *Fetcher) readFile(p string) (Payload, error) {
	info, err := os.Stat(p)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if info.IsDir() {
		return Payload{}, fmt.Errorf("%w: %s is a directory", ErrFetchFailed, p)
	}
	if info.Size() > f.maxSize {
		return Payload{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return Payload{
		Data: data,
		Mode: source.ModeForExt(filepath.Ext(p)),
		Name: filepath.Base(p),
	}, nil
}

// sheetsExportURL rewrites Google Sheets edit and share links into their
// CSV export form, keeping the selected tab. Other URLs are returned as is.
func sheetsExportURL(u *url.URL) *url.URL {
	if !strings.EqualFold(u.Hostname(), "docs.google.com") {
		return u
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// spreadsheets/d/<id>/<action>
	if len(parts) < 3 || parts[0] != "spreadsheets" || parts[1] != "d" || parts[2] == "e" {
		return u
	}
	if len(parts) >= 4 && parts[3] == "export" {
		return u
	}

	gid := u.Query().Get("gid")
	if gid == "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			gid = frag.Get("gid")
		}
	}

	q := url.Values{}
	q.Set("format", "csv")
	if gid != "" {
		q.Set("gid", gid)
	}
	return &url.URL{
		Scheme:   "https",
		Host:     u.Host,
		Path:     "/spreadsheets/d/" + parts[2] + "/export",
		RawQuery: q.Encode(),
	}
}

var textContentTypes = map[string]bool{
	"text/csv":                  true,
	"text/plain":                true,
	"text/tab-separated-values": true,
	"application/csv":           true,
}

// urlMode picks text mode for explicit CSV exports, textual content types
// and text file extensions; everything else is treated as a workbook.
func urlMode(u *url.URL, contentType string) source.Mode {
	q := u.Query()
	for _, key := range []string{"format", "output", "tqx"} {
		v := strings.ToLower(q.Get(key))
		if v == "csv" || v == "tsv" || strings.HasPrefix(v, "out:csv") {
			return source.ModeText
		}
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && textContentTypes[strings.ToLower(mt)] {
		return source.ModeText
	}
	return source.ModeForExt(path.Ext(u.Path))
}

func attachmentName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func urlName(u *url.URL) string {
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "export" {
		return u.Host + u.Path
	}
	return base
}
