// Package verdict owns the committed review status of a single comparison and
// the transitions between statuses.
package verdict

import (
	"context"
	"errors"
	"sync"
	"time"

	"diffreview/internal/domain"
	"diffreview/internal/ports"
)

// Notifier is told about every committed transition, while the machine still
// holds its lock, so observers are patched before Request returns.
type Notifier interface {
	StatusChanged(comparisonID string, status domain.Verdict, updatedAt time.Time)
}

type NotifierFunc func(comparisonID string, status domain.Verdict, updatedAt time.Time)

func (f NotifierFunc) StatusChanged(id string, s domain.Verdict, at time.Time) { f(id, s, at) }

// Flights tracks which comparisons have a status update in progress. One
// registry is shared by every machine so the limit holds per comparison id,
// not per machine.
type Flights struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewFlights() *Flights { return &Flights{keys: map[string]struct{}{}} }

func (f *Flights) begin(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[id]; busy {
		return false
	}
	f.keys[id] = struct{}{}
	return true
}

func (f *Flights) end(id string) {
	f.mu.Lock()
	delete(f.keys, id)
	f.mu.Unlock()
}

// Active reports whether id has an update in flight.
func (f *Flights) Active(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.keys[id]
	return busy
}

// Transition describes the outcome of a Request.
type Transition struct {
	ComparisonID string
	From         domain.Verdict
	To           domain.Verdict
	UpdatedAt    time.Time
	Changed      bool
}

type Machine struct {
	mu        sync.Mutex
	id        string
	status    domain.Verdict
	updatedAt time.Time

	updater ports.StatusUpdater
	flights *Flights
	notify  Notifier
	now     func() time.Time
}

type Option func(*Machine)

// WithClock overrides the clock used when the store omits an update time.
func WithClock(now func() time.Time) Option { return func(m *Machine) { m.now = now } }

// New starts a machine at c's status, or pending if it has none.
func New(c domain.Comparison, updater ports.StatusUpdater, flights *Flights, notify Notifier, opts ...Option) *Machine {
	status := c.Status
	if status == "" {
		status = domain.VerdictPending
	}
	if flights == nil {
		flights = NewFlights()
	}
	m := &Machine{
		id:        c.ID,
		status:    status,
		updatedAt: c.UpdatedAt,
		updater:   updater,
		flights:   flights,
		notify:    notify,
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Machine) ComparisonID() string { return m.id }

// Status returns the committed status and when it was last changed.
func (m *Machine) Status() (domain.Verdict, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.updatedAt
}

func (m *Machine) InFlight() bool { return m.flights.Active(m.id) }

// Allowed reports whether the affordance for v should be enabled.
func (m *Machine) Allowed(v domain.Verdict) bool {
	m.mu.Lock()
	cur := m.status
	m.mu.Unlock()
	return v.Valid() && v != cur && !m.InFlight()
}

// Request asks the store of record to move the comparison to next. Nothing is
// committed until the store confirms; a failed call leaves the machine as it was.
// Requesting the current status is a no-op.
func (m *Machine) Request(ctx context.Context, actor *domain.Actor, next domain.Verdict) (Transition, error) {
	if !(domain.Comparison{ID: m.id}).HasIdentity() {
		return Transition{}, &domain.PreconditionError{Reason: "comparison has no identity"}
	}
	if err := domain.RequireActor(actor); err != nil {
		return Transition{}, err
	}
	if _, err := domain.ParseVerdict(string(next)); err != nil {
		return Transition{}, err
	}

	m.mu.Lock()
	from := m.status
	if next == from {
		t := Transition{ComparisonID: m.id, From: from, To: from, UpdatedAt: m.updatedAt}
		m.mu.Unlock()
		return t, nil
	}
	if !m.flights.begin(m.id) {
		m.mu.Unlock()
		return Transition{}, domain.ErrInFlight
	}
	m.mu.Unlock()
	defer m.flights.end(m.id)

	res, err := m.updater.UpdateStatus(ctx, m.id, next, actor.ID)
	if err != nil {
		var se *domain.StatusUpdateError
		if errors.As(err, &se) {
			return Transition{}, err
		}
		return Transition{}, &domain.StatusUpdateError{Err: err}
	}

	committed := res.Status
	if !committed.Valid() {
		committed = next
	}
	at := res.UpdatedAt
	if at.IsZero() {
		at = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = committed
	m.updatedAt = at
	if m.notify != nil {
		m.notify.StatusChanged(m.id, committed, at)
	}
	return Transition{ComparisonID: m.id, From: from, To: committed, UpdatedAt: at, Changed: true}, nil
}
