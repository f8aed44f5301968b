// Package memory is a process-local Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"motocusto/internal/core"
	"motocusto/internal/ports"
)

type record struct {
	userID     string
	entry      core.Entry
	syncStatus string
	attempts   int
	updatedAt  time.Time
}

type Store struct {
	mu       sync.Mutex
	users    map[string]core.User // by lower-cased email
	settings map[string]core.CostConfiguration
	entries  map[string]*record
	now      func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    map[string]core.User{},
		settings: map[string]core.CostConfiguration{},
		entries:  map[string]*record{},
		now:      time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// LoadConfiguration returns the zero configuration for unknown users.
func (s *Store) LoadConfiguration(_ context.Context, userID string) (core.CostConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[userID], nil
}

func (s *Store) SaveConfiguration(_ context.Context, userID string, cfg core.CostConfiguration) (core.CostConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.Version = s.settings[userID].Version + 1
	s.settings[userID] = cfg
	return cfg, nil
}

func (s *Store) LoadEntries(_ context.Context, userID string) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, r := range s.entries {
		if r.userID == userID {
			out = append(out, r.entry)
		}
	}
	return core.SortEntries(out), nil
}

func (s *Store) GetEntry(_ context.Context, userID, entryID string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[entryID]
	if !ok || r.userID != userID {
		return core.Entry{}, core.ErrNotFound
	}
	return r.entry, nil
}

// SaveEntry inserts when e.ID is empty, otherwise replaces the existing entry.
func (s *Store) SaveEntry(_ context.Context, userID string, e core.Entry) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
		e.Version = 1
	} else {
		existing, ok := s.entries[e.ID]
		if !ok || existing.userID != userID {
			return core.Entry{}, core.ErrNotFound
		}
		e.Version = existing.entry.Version + 1
	}
	s.entries[e.ID] = &record{userID: userID, entry: e, syncStatus: ports.SyncPending, updatedAt: s.now()}
	return e, nil
}

func (s *Store) DeleteEntry(_ context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[entryID]
	if !ok || r.userID != userID {
		return core.ErrNotFound
	}
	delete(s.entries, entryID)
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	key := strings.ToLower(strings.TrimSpace(u.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return core.User{}, core.ErrEmailTaken
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = key
	u.CreatedAt = s.now()
	s.users[key] = u
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

// PendingSync returns the oldest pending entries first.
func (s *Store) PendingSync(_ context.Context, limit int) ([]ports.PendingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.PendingEntry
	for _, r := range s.entries {
		retry := r.syncStatus == ports.SyncError && r.attempts < ports.MaxSyncAttempts
		if r.syncStatus != ports.SyncPending && !retry {
			continue
		}
		out = append(out, ports.PendingEntry{
			UserID:    r.userID,
			EntryID:   r.entry.ID,
			Version:   r.entry.Version,
			Attempts:  r.attempts,
			UpdatedAt: r.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, entryID string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.entries[entryID]; ok && r.entry.Version == version {
		r.syncStatus = ports.SyncSynced
		r.attempts = 0
	}
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, entryID string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.entries[entryID]; ok && r.entry.Version == version {
		r.syncStatus = ports.SyncError
		r.attempts++
	}
	return nil
}

func (s *Store) RetryFailedSyncs(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, r := range s.entries {
		if r.syncStatus == ports.SyncError {
			r.syncStatus = ports.SyncPending
			r.attempts = 0
			n++
		}
	}
	return n, nil
}
