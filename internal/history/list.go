// Package history keeps the list of a project's prior comparisons in step with
// the comparison open for review.
package history

import (
	"time"

	"diffreview/internal/domain"
)

// Patch carries the fields a verdict change updates.
type Patch struct {
	Status    domain.Verdict
	UpdatedAt time.Time
}

// List is an immutable, server-ordered sequence of comparisons with at most
// one selected entry. Every modifier returns a new List.
type List struct {
	projectID string
	entries   []domain.Comparison
	selected  string
}

// NewList copies entries in the order given.
func NewList(projectID string, entries []domain.Comparison) List {
	cp := make([]domain.Comparison, len(entries))
	copy(cp, entries)
	return List{projectID: projectID, entries: cp}
}

func (l List) ProjectID() string { return l.projectID }
func (l List) Len() int          { return len(l.entries) }

// Entries returns a copy of the entries.
func (l List) Entries() []domain.Comparison {
	cp := make([]domain.Comparison, len(l.entries))
	copy(cp, l.entries)
	return cp
}

// Index returns the position of id, or -1.
func (l List) Index(id string) int {
	for i, e := range l.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (l List) Find(id string) (domain.Comparison, bool) {
	if i := l.Index(id); i >= 0 {
		return l.entries[i], true
	}
	return domain.Comparison{}, false
}

func (l List) SelectedID() string { return l.selected }

func (l List) Selected() (domain.Comparison, bool) {
	if l.selected == "" {
		return domain.Comparison{}, false
	}
	return l.Find(l.selected)
}

// WithSelected marks id as the selected entry. ok is false if id is absent.
func (l List) WithSelected(id string) (next List, ok bool) {
	if l.Index(id) < 0 {
		return l, false
	}
	l.selected = id
	return l, true
}

func (l List) WithoutSelection() List {
	l.selected = ""
	return l
}

// Patched replaces the status and update time of id in place. ok is false,
// and l is returned unchanged, when id is not in the list.
func (l List) Patched(id string, p Patch) (next List, ok bool) {
	i := l.Index(id)
	if i < 0 {
		return l, false
	}
	entries := make([]domain.Comparison, len(l.entries))
	copy(entries, l.entries)
	entries[i] = entries[i].WithStatus(p.Status, p.UpdatedAt)
	l.entries = entries
	return l, true
}

// Without drops id, clearing the selection if it pointed there. The order of
// the remaining entries is unchanged.
func (l List) Without(id string) (next List, ok bool) {
	i := l.Index(id)
	if i < 0 {
		return l, false
	}
	entries := make([]domain.Comparison, 0, len(l.entries)-1)
	entries = append(entries, l.entries[:i]...)
	entries = append(entries, l.entries[i+1:]...)
	l.entries = entries
	if l.selected == id {
		l.selected = ""
	}
	return l, true
}
