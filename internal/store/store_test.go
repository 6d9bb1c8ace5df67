package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/wordquiz/internal/vocab"
)

func newRecord(source string) ImportRecord {
	return ImportRecord{
		ID:             uuid.New(),
		Source:         source,
		Mode:           "binary",
		HeaderDetected: true,
		Columns:        vocab.DefaultColumns,
		Rows:           4,
		Entries:        3,
		CreatedAt:      time.Now().UTC(),
	}
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgres_Insert(t *testing.T) {
	rec := newRecord("words.xlsx")

	tests := []struct {
		name    string
		rec     ImportRecord
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "successful insert",
			rec:  rec,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO import_history`).
					WithArgs(rec.ID, rec.Source, rec.Mode, rec.HeaderDetected,
						0, 1, 2, 4, 3, 0, "", "", pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "database error",
			rec:  rec,
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO import_history`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset by peer"))
			},
			wantErr: errors.New("connection reset"),
		},
		{
			name:    "zero id",
			rec:     ImportRecord{Source: "x.csv"},
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "empty source",
			rec:     ImportRecord{ID: uuid.New()},
			setup:   func(mock pgxmock.PgxPoolIface) {},
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setup(mock)

			err := NewPostgres(mock).Insert(context.Background(), tt.rec)
			switch {
			case tt.wantErr == nil:
				assert.NoError(t, err)
			case errors.Is(tt.wantErr, ErrInvalidRecord):
				assert.ErrorIs(t, err, ErrInvalidRecord)
			default:
				assert.ErrorContains(t, err, tt.wantErr.Error())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_Recent(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()
	cols := []string{
		"id", "source", "mode", "header_detected",
		"col_unknown", "col_translation", "col_transliteration",
		"row_count", "entry_count", "dropped_count", "error", "client_ip", "created_at",
	}

	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM import_history`).
		WithArgs(DefaultRecentLimit).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(id, "sheet", "text", false, 0, 1, 2, 10, 9, 1, "", "10.0.0.1", now))

	got, err := NewPostgres(mock).Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "sheet", got[0].Source)
	assert.Equal(t, vocab.DefaultColumns, got[0].Columns)
	assert.Equal(t, 9, got[0].Entries)
	assert.Equal(t, 1, got[0].Dropped)
	assert.Equal(t, "10.0.0.1", got[0].ClientIP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecentError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM import_history`).
		WithArgs(MaxRecentLimit).
		WillReturnError(fmt.Errorf("relation does not exist"))

	_, err := NewPostgres(mock).Recent(context.Background(), 10_000)
	assert.ErrorContains(t, err, "query import history")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS import_history`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewPostgres(mock).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemory_RecentNewestFirst(t *testing.T) {
	m := NewMemory(3)
	ctx := context.Background()

	got, err := m.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Insert(ctx, newRecord(fmt.Sprintf("f%d.csv", i))))
	}
	assert.Equal(t, 3, m.Len())

	got, err = m.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "f4.csv", got[0].Source)
	assert.Equal(t, "f3.csv", got[1].Source)
	assert.Equal(t, "f2.csv", got[2].Source)

	got, err = m.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "f4.csv", got[0].Source)
}

func TestMemory_RejectsInvalid(t *testing.T) {
	m := NewMemory(2)
	err := m.Insert(context.Background(), ImportRecord{Source: "a"})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = m.Insert(ctx, newRecord("x.csv"))
				_, _ = m.Recent(ctx, 5)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}

func TestImportRecord_Succeeded(t *testing.T) {
	rec := newRecord("a.csv")
	assert.True(t, rec.Succeeded())

	rec.Error = "malformed source"
	assert.False(t, rec.Succeeded())

	rec = newRecord("b.csv")
	rec.Entries = 0
	assert.False(t, rec.Succeeded())
}
