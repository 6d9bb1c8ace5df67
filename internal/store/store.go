// Package store keeps the history of dataset imports.
//
// Postgres is used when a database URL is configured; otherwise a bounded
// in-memory ring keeps the most recent imports for the life of the process.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

// ErrInvalidRecord is returned when a record is missing its id or source.
var ErrInvalidRecord = errors.New("invalid import record")

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

// MaxRecentLimit caps how many records one Recent call returns.
const MaxRecentLimit = 500

// ImportRecord summarizes one import attempt, successful or not.
type ImportRecord struct {
	ID             uuid.UUID     `json:"id"`
	Source         string        `json:"source"`
	Mode           string        `json:"mode"`
	HeaderDetected bool          `json:"headerDetected"`
	Columns        vocab.Columns `json:"columns"`
	Rows           int           `json:"rows"`
	Entries        int           `json:"entries"`
	Dropped        int           `json:"dropped"`
	Error          string        `json:"error,omitempty"`
	ClientIP       string        `json:"clientIp,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// Succeeded reports whether the import produced entries.
func (r ImportRecord) Succeeded() bool {
	return r.Error == "" && r.Entries > 0
}

func (r *ImportRecord) validate() error {
	if r.ID == uuid.Nil {
		return errors.Join(ErrInvalidRecord, errors.New("id is required"))
	}
	if r.Source == "" {
		return errors.Join(ErrInvalidRecord, errors.New("source is required"))
	}
	return nil
}

// History records imports and lists the most recent ones.
type History interface {
	Insert(ctx context.Context, rec ImportRecord) error
	Recent(ctx context.Context, limit int) ([]ImportRecord, error)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	default:
		return limit
	}
}
