package history

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"diffreview/internal/domain"
	"diffreview/internal/ports"
)

// Synchronizer owns the history list for one review session.
//
// Patches that land while a load is in flight are journaled and replayed onto
// the fetched entries, so a reload never resurrects a stale verdict.
type Synchronizer struct {
	mu       sync.Mutex
	lister   ports.HistoryLister
	list     List
	loaded   bool
	detached bool
	log      *slog.Logger

	seq       uint64 // bumped by every applied patch
	gen       uint64 // bumped by every load start
	installed uint64 // generation of the list currently installed
	inflight  int
	journal   []journaled
}

type journaled struct {
	seq     uint64
	id      string
	patch   Patch
	removed bool
}

func NewSynchronizer(lister ports.HistoryLister, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{lister: lister, log: logger}
}

// Load fetches projectID's comparisons and replaces the list. On failure the
// previous list is kept and a HistoryLoadError is returned. The selection
// survives a reload of the same project if its entry is still present. A load
// that finishes after a newer one has been installed is discarded.
func (s *Synchronizer) Load(ctx context.Context, projectID string) (List, error) {
	s.mu.Lock()
	s.gen++
	gen, since := s.gen, s.seq
	s.inflight++
	s.mu.Unlock()

	entries, err := s.lister.ListProjectComparisons(ctx, projectID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	defer s.trimJournal()

	if err != nil {
		s.log.Warn("history load failed", "project_id", projectID, "err", err)
		var he *domain.HistoryLoadError
		if !errors.As(err, &he) {
			err = &domain.HistoryLoadError{Err: err}
		}
		return s.list, err
	}
	if gen < s.installed {
		return s.list, nil
	}

	next := NewList(projectID, entries)
	for _, j := range s.journal {
		if j.seq <= since {
			continue
		}
		if j.removed {
			next, _ = next.Without(j.id)
		} else {
			next, _ = next.Patched(j.id, j.patch)
		}
	}
	if s.list.projectID == projectID && s.list.selected != "" {
		next, _ = next.WithSelected(s.list.selected)
	}
	s.list = next
	s.installed = gen
	s.loaded = true
	return s.list, nil
}

// trimJournal drops the journal once no load can still need it. Caller holds s.mu.
func (s *Synchronizer) trimJournal() {
	if s.inflight == 0 {
		s.journal = nil
	}
}

// Loaded reports whether any load has succeeded.
func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Select marks id as selected and returns its entry.
func (s *Synchronizer) Select(id string) (domain.Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.list.WithSelected(id)
	if !ok {
		return domain.Comparison{}, domain.ErrNotFound
	}
	s.list = next
	c, _ := next.Selected()
	return c, nil
}

func (s *Synchronizer) ClearSelection() {
	s.mu.Lock()
	s.list = s.list.WithoutSelection()
	s.mu.Unlock()
}

// Patch updates the entry for id. Unknown ids and detached synchronizers are
// silently ignored: the entry may live on a page that was never loaded.
func (s *Synchronizer) Patch(id string, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.seq++
	if s.inflight > 0 {
		s.journal = append(s.journal, journaled{seq: s.seq, id: id, patch: p})
	}
	next, ok := s.list.Patched(id, p)
	if ok {
		s.list = next
	}
	return ok
}

// Remove drops a deleted comparison from the list.
func (s *Synchronizer) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return false
	}
	s.seq++
	if s.inflight > 0 {
		s.journal = append(s.journal, journaled{seq: s.seq, id: id, removed: true})
	}
	next, ok := s.list.Without(id)
	if ok {
		s.list = next
	}
	return ok
}

func (s *Synchronizer) Snapshot() List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list
}

// Detach stops all further patches. Used when the owning session is closed.
func (s *Synchronizer) Detach() {
	s.mu.Lock()
	s.detached = true
	s.mu.Unlock()
}
