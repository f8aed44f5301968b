// Package memory is an in-process stand-in for the spreadsheet mirror. The
// worker uses it when no spreadsheet is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"motocusto/internal/ports"
)

type Sheet struct {
	mu   sync.Mutex
	rows map[string]ports.SheetRow
}

var _ ports.SheetWriter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{rows: make(map[string]ports.SheetRow)}
}

func (s *Sheet) UpsertEntry(_ context.Context, row ports.SheetRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.Entry.ID] = row
	return nil
}

func (s *Sheet) DeleteEntry(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, entryID)
	return nil
}

// Row returns the mirrored row of an entry.
func (s *Sheet) Row(entryID string) (ports.SheetRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[entryID]
	return r, ok
}

// Rows returns every mirrored row ordered by entry date, then ID.
func (s *Sheet) Rows() []ports.SheetRow {
	s.mu.Lock()
	out := make([]ports.SheetRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Entry, out[j].Entry
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.ID < b.ID
	})
	return out
}
