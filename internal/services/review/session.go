package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"diffreview/internal/domain"
	"diffreview/internal/history"
	"diffreview/internal/verdict"
	"diffreview/internal/visual"
)

// Session binds one open comparison to its project history and visual state.
//
// Lock order is machine, then session, then history: a verdict machine calls
// StatusChanged while holding its own lock, so the session never calls into a
// machine while holding s.mu.
type Session struct {
	id      string
	ownerID string
	deps    Deps
	flights *verdict.Flights
	log     *slog.Logger

	mu       sync.Mutex
	project  *domain.Project
	history  *history.Synchronizer
	current  *domain.Comparison
	machine  *verdict.Machine
	machines map[string]*verdict.Machine
	visual   *visual.Controller
	notice   string
	closed   bool
}

// View is an immutable snapshot of a session.
type View struct {
	ID       string
	Project  *domain.Project
	History  history.List
	Current  *domain.Comparison
	Visual   visual.State
	InFlight bool
	Allowed  []domain.Verdict
	Notice   string
}

func (s *Session) ID() string { return s.id }

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:      s.id,
		History: s.history.Snapshot(),
		Visual:  s.visual.State(),
		Notice:  s.notice,
	}
	if s.project != nil {
		p := *s.project
		v.Project = &p
	}
	if s.current != nil {
		c := *s.current
		v.Current = &c
		v.InFlight = s.flights.Active(c.ID)
		if !v.InFlight {
			for _, st := range domain.Verdicts() {
				if st != c.Status {
					v.Allowed = append(v.Allowed, st)
				}
			}
		}
	}
	return v
}

// Compare validates req, runs it and opens the result. When the session is
// bound to a project the history is fully reloaded afterwards.
func (s *Session) Compare(ctx context.Context, actor *domain.Actor, req domain.CompareRequest) (domain.Comparison, error) {
	if err := domain.RequireActor(actor); err != nil {
		return domain.Comparison{}, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.Comparison{}, domain.ErrNotFound
	}
	var projectID string
	if s.project != nil {
		projectID = s.project.ID
		req.ProjectID = &projectID
	}
	s.mu.Unlock()

	if err := req.Validate(); err != nil {
		return domain.Comparison{}, err
	}
	c, err := s.deps.Comparer.Compare(ctx, req, *actor)
	if err != nil {
		var ce *domain.ComparisonRequestError
		if !errors.As(err, &ce) {
			err = &domain.ComparisonRequestError{Err: err}
		}
		s.setNotice(err)
		return domain.Comparison{}, err
	}
	if c.Status == "" {
		c.Status = domain.VerdictPending
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return c, nil
	}
	s.history.ClearSelection()
	s.open(c)
	s.mu.Unlock()

	if projectID != "" {
		if _, err := s.history.Load(ctx, projectID); err != nil {
			s.setNotice(err)
		}
	}
	return c, nil
}

// SelectHistory opens a history entry, replacing the open comparison and
// resetting the visual state.
func (s *Session) SelectHistory(id string) (domain.Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Comparison{}, domain.ErrNotFound
	}
	c, err := s.history.Select(id)
	if err != nil {
		return domain.Comparison{}, err
	}
	s.open(c)
	return c, nil
}

// Back returns to the list. In-flight verdict requests keep running and still
// patch the history when they resolve.
func (s *Session) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.machine = nil
	s.history.ClearSelection()
	s.visual.Reset(false)
}

// ReloadHistory refetches the project history.
func (s *Session) ReloadHistory(ctx context.Context) (history.List, error) {
	s.mu.Lock()
	project := s.project
	s.mu.Unlock()
	if project == nil {
		return history.List{}, &domain.PreconditionError{Reason: "session is not bound to a project"}
	}
	list, err := s.history.Load(ctx, project.ID)
	if err != nil {
		s.setNotice(err)
	}
	return list, err
}

func (s *Session) ToggleHeatmap() (visual.Mode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return visual.ModeHighlight, domain.ErrNoComparison
	}
	return s.visual.ToggleHeatmap()
}

func (s *Session) OpenEnlarged(t visual.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.ErrNoComparison
	}
	return s.visual.OpenEnlarged(t)
}

func (s *Session) CloseEnlarged() {
	s.mu.Lock()
	s.visual.CloseEnlarged()
	s.mu.Unlock()
}

func (s *Session) Dismiss(sig visual.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visual.Dismiss(sig)
}

// RequestVerdict moves the open comparison to v through its verdict machine.
func (s *Session) RequestVerdict(ctx context.Context, actor *domain.Actor, v domain.Verdict) (verdict.Transition, error) {
	s.mu.Lock()
	m := s.machine
	s.mu.Unlock()
	if m == nil {
		return verdict.Transition{}, domain.ErrNoComparison
	}
	t, err := m.Request(ctx, actor, v)
	if err != nil {
		if domain.IsCollaboratorError(err) {
			s.setNotice(err)
		}
		s.log.Warn("verdict update failed", "session_id", s.id, "comparison_id", m.ComparisonID(), "status", v, "err", err)
		return t, err
	}
	if t.Changed {
		s.log.Info("verdict updated", "session_id", s.id, "comparison_id", t.ComparisonID, "from", t.From, "to", t.To)
	}
	return t, nil
}

// DeleteComparison deletes id through the store, drops it from the history and
// closes it if it is open, then reloads the project history.
func (s *Session) DeleteComparison(ctx context.Context, actor *domain.Actor, id string) error {
	if err := domain.RequireActor(actor); err != nil {
		return err
	}
	s.mu.Lock()
	closed, project := s.closed, s.project
	s.mu.Unlock()
	if closed {
		return domain.ErrNotFound
	}
	if err := s.deps.Deleter.Delete(ctx, actor, id); err != nil {
		return err
	}

	s.mu.Lock()
	s.history.Remove(id)
	delete(s.machines, id)
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.machine = nil
		s.visual.Reset(false)
	}
	s.mu.Unlock()

	if project != nil {
		if _, err := s.history.Load(ctx, project.ID); err != nil {
			s.setNotice(err)
		}
	}
	return nil
}

// StatusChanged patches the history entry and, if it is open, the session's
// copy of the comparison in one step.
func (s *Session) StatusChanged(id string, status domain.Verdict, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Patch(id, history.Patch{Status: status, UpdatedAt: at})
	if s.closed || s.current == nil || s.current.ID != id {
		return
	}
	c := s.current.WithStatus(status, at)
	s.current = &c
}

func (s *Session) DismissNotice() {
	s.mu.Lock()
	s.notice = ""
	s.mu.Unlock()
}

// Close releases the visual lock and detaches the history.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.visual.Close()
	s.history.Detach()
	s.current = nil
	s.machine = nil
}

// open installs c as the open comparison. Caller holds s.mu.
func (s *Session) open(c domain.Comparison) {
	s.current = &c
	s.machine = s.machineFor(c)
	s.visual.Reset(c.HasHeatmap())
}

// machineFor reuses the machine of a comparison whose update is still in
// flight so the reopened view commits with it; otherwise it starts fresh from c.
func (s *Session) machineFor(c domain.Comparison) *verdict.Machine {
	if m, ok := s.machines[c.ID]; ok && m.InFlight() {
		return m
	}
	m := verdict.New(c, s.deps.Updater, s.flights, s, verdict.WithClock(s.deps.Clock))
	s.machines[c.ID] = m
	return m
}

func (s *Session) setNotice(err error) {
	s.mu.Lock()
	s.notice = err.Error()
	s.mu.Unlock()
}
