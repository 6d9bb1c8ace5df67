package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/wordquiz/internal/logging"
	"github.com/JonMunkholm/wordquiz/internal/source"
	"github.com/JonMunkholm/wordquiz/internal/store"
	"github.com/JonMunkholm/wordquiz/internal/transport"
	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

var (
	// ErrNoEntries is returned by service imports whose dataset yields no
	// word entries. The pipeline entry points report this as an empty slice.
	ErrNoEntries = errors.New("no valid entries: dataset produced zero word entries")

	// ErrNoFile is returned when an import carries no data at all.
	ErrNoFile = errors.New("no file provided")

	// ErrFileTooLarge is returned when the payload exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large: payload exceeds size limit")

	// ErrNoFetcher is returned by ImportLocator when no fetcher is configured.
	ErrNoFetcher = fmt.Errorf("%w: remote import is disabled", transport.ErrUnsupportedLocator)
)

// DefaultPreviewRows is the sample size used when Options.PreviewRows is unset.
const DefaultPreviewRows = 10

// Fetcher acquires dataset bytes from a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (transport.Payload, error)
}

// Options configures a Service. Zero fields select defaults: the default
// vocabulary, an in-memory history, a default limiter and no fetcher.
type Options struct {
	Normalizer  *vocab.Normalizer
	Fetcher     Fetcher
	History     store.History
	Limiter     *ImportLimiter
	MaxFileSize int64
	PreviewRows int

	// MaxCells bounds the grid of a single import. Zero selects
	// source.DefaultMaxCells.
	MaxCells int
}

// Service runs imports: it bounds concurrency, parses, normalizes and
// records every attempt in the history. It is safe for concurrent use.
type Service struct {
	normalizer  *vocab.Normalizer
	reader      source.Reader
	fetcher     Fetcher
	history     store.History
	limiter     *ImportLimiter
	maxFileSize int64
	previewRows int
	now         func() time.Time
}

// NewService creates a Service from opts.
func NewService(opts Options) *Service {
	s := &Service{
		normalizer:  opts.Normalizer,
		reader:      source.Reader{MaxCells: opts.MaxCells},
		fetcher:     opts.Fetcher,
		history:     opts.History,
		limiter:     opts.Limiter,
		maxFileSize: opts.MaxFileSize,
		previewRows: opts.PreviewRows,
		now:         time.Now,
	}
	if s.normalizer == nil {
		s.normalizer = vocab.New(vocab.Options{})
	}
	if s.history == nil {
		s.history = store.NewMemory(store.DefaultRecentLimit)
	}
	if s.limiter == nil {
		s.limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime)
	}
	if s.previewRows <= 0 {
		s.previewRows = DefaultPreviewRows
	}
	return s
}

// ImportResult is the outcome of a successful import.
type ImportResult struct {
	ID       string               `json:"id"`
	Source   string               `json:"source"`
	Mode     string               `json:"mode"`
	Header   vocab.HeaderDecision `json:"header"`
	Entries  []vocab.WordEntry    `json:"entries"`
	Rejected []vocab.RejectedRow  `json:"rejected,omitempty"`
	Stats    vocab.Stats          `json:"stats"`
	Duration time.Duration        `json:"-"`
}

// PreviewResult shows how a dataset would be imported without recording it.
type PreviewResult struct {
	Source string               `json:"source"`
	Mode   string               `json:"mode"`
	Header vocab.HeaderDecision `json:"header"`

	// Labels holds the header cell for each role, empty when the role fell
	// back to its position or there is no header.
	Labels   map[string]string   `json:"labels,omitempty"`
	Sample   []vocab.WordEntry   `json:"sample"`
	Rejected []vocab.RejectedRow `json:"rejected,omitempty"`
	Stats    vocab.Stats         `json:"stats"`
}

// ParseBytes is ParseFromBytes with the service's normalizer.
func (s *Service) ParseBytes(data []byte, mode source.Mode) ([]vocab.WordEntry, error) {
	grid, err := s.reader.Read(data, mode)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(grid).Entries, nil
}

// ParseText is ParseFromText with the service's normalizer.
func (s *Service) ParseText(text string) ([]vocab.WordEntry, error) {
	grid, err := s.reader.ReadDelimited(text)
	if err != nil {
		return nil, err
	}
	return s.normalizer.Normalize(grid).Entries, nil
}

// ImportBytes imports an uploaded dataset named name.
func (s *Service) ImportBytes(ctx context.Context, name string, data []byte, mode source.Mode) (*ImportResult, error) {
	if name == "" {
		name = "upload"
	}
	id := uuid.New()

	var res *ImportResult
	err := s.limiter.Run(ctx, id, name, func() error {
		var err error
		res, err = s.runImport(ctx, id, name, data, mode)
		return err
	})
	return res, err
}

// ImportLocator fetches the dataset named by locator and imports it. The
// fetch counts against the same concurrency limit as the parse.
func (s *Service) ImportLocator(ctx context.Context, locator string) (*ImportResult, error) {
	if s.fetcher == nil {
		return nil, ErrNoFetcher
	}

	id := uuid.New()

	var res *ImportResult
	err := s.limiter.Run(ctx, id, locator, func() error {
		payload, err := s.fetcher.Fetch(ctx, locator)
		if err != nil {
			s.record(ctx, store.ImportRecord{
				ID:     id,
				Source: locator,
				Error:  err.Error(),
			})
			return err
		}

		name := locator
		if payload.Name != "" {
			name = payload.Name
		}
		res, err = s.runImport(ctx, id, name, payload.Data, payload.Mode)
		return err
	})
	return res, err
}

func (s *Service) runImport(ctx context.Context, id uuid.UUID, name string, data []byte, mode source.Mode) (*ImportResult, error) {
	start := s.now()
	logger := logging.WithFields(ctx,
		"import_id", id.String(),
		"source", name,
		"mode", mode.String(),
	)
	logger.Info("import started", "bytes", len(data))

	rec := store.ImportRecord{ID: id, Source: name, Mode: mode.String()}

	fail := func(err error) (*ImportResult, error) {
		rec.Error = err.Error()
		s.record(ctx, rec)
		logger.Warn("import failed", "error", err, "duration_ms", s.now().Sub(start).Milliseconds())
		return nil, err
	}

	if err := s.checkPayload(data); err != nil {
		return fail(err)
	}

	grid, err := s.reader.Read(data, mode)
	if err != nil {
		return fail(err)
	}

	out := s.normalizer.Normalize(grid)
	rec.HeaderDetected = out.Header.Present
	rec.Columns = out.Header.Columns
	rec.Rows = out.Stats.Rows
	rec.Entries = out.Stats.Entries
	rec.Dropped = out.Stats.Dropped

	if len(out.Entries) == 0 {
		return fail(ErrNoEntries)
	}

	s.record(ctx, rec)

	elapsed := s.now().Sub(start)
	logger.Info("import completed",
		"header", out.Header.String(),
		"entries", out.Stats.Entries,
		"dropped", out.Stats.Dropped,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &ImportResult{
		ID:       id.String(),
		Source:   name,
		Mode:     mode.String(),
		Header:   out.Header,
		Entries:  out.Entries,
		Rejected: out.Rejected,
		Stats:    out.Stats,
		Duration: elapsed,
	}, nil
}

// Preview parses data and reports the header decision, the first rows
// entries and every rejected row. Nothing is recorded.
func (s *Service) Preview(ctx context.Context, name string, data []byte, mode source.Mode, rows int) (*PreviewResult, error) {
	if rows <= 0 {
		rows = s.previewRows
	}
	if err := s.checkPayload(data); err != nil {
		return nil, err
	}

	var res *PreviewResult
	err := s.limiter.Run(ctx, uuid.New(), name, func() error {
		grid, err := s.reader.Read(data, mode)
		if err != nil {
			return err
		}
		out := s.normalizer.Normalize(grid)

		sample := out.Entries
		if len(sample) > rows {
			sample = sample[:rows]
		}
		res = &PreviewResult{
			Source:   name,
			Mode:     mode.String(),
			Header:   out.Header,
			Labels:   headerLabels(grid, out.Header),
			Sample:   sample,
			Rejected: out.Rejected,
			Stats:    out.Stats,
		}
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).Debug("preview failed", "source", name, "error", err)
		return nil, err
	}
	return res, nil
}

// History returns the n most recent imports, newest first.
func (s *Service) History(ctx context.Context, n int) ([]store.ImportRecord, error) {
	recs, err := s.history.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("import history: %w", err)
	}
	return recs, nil
}

// RemoteEnabled reports whether ImportLocator can fetch anything.
func (s *Service) RemoteEnabled() bool {
	return s.fetcher != nil
}

// LimiterStatus reports the import limiter state.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) checkPayload(data []byte) error {
	if len(data) == 0 {
		return ErrNoFile
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, len(data), s.maxFileSize)
	}
	return nil
}

// record writes rec to the history. A history failure never fails the
// import; it is logged.
func (s *Service) record(ctx context.Context, rec store.ImportRecord) {
	rec.ClientIP = ClientIPFromContext(ctx)
	rec.CreatedAt = s.now().UTC()
	if err := s.history.Insert(context.WithoutCancel(ctx), rec); err != nil {
		logging.FromContext(ctx).Error("record import history",
			"import_id", rec.ID.String(),
			"error", err,
		)
	}
}

func headerLabels(grid source.Grid, d vocab.HeaderDecision) map[string]string {
	if !d.Present || len(grid) == 0 {
		return nil
	}
	labels := make(map[string]string, len(d.Matched))
	for _, role := range vocab.Roles {
		if !d.Matched[role.String()] {
			continue
		}
		labels[role.String()] = grid[0].Text(d.Columns.Index(role))
	}
	return labels
}
