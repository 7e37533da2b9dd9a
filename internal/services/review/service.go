package review

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"diffreview/internal/domain"
	"diffreview/internal/history"
	"diffreview/internal/ports"
	"diffreview/internal/verdict"
	"diffreview/internal/visual"
)

// Deps are the collaborators every session talks to.
type Deps struct {
	Comparer ports.Comparer
	Updater  ports.StatusUpdater
	History  ports.HistoryLister
	Projects ports.ProjectRepository
	Deleter  ports.ComparisonDeleter
	Logger   *slog.Logger
	Clock    func() time.Time
	// NewLock builds the background lock for a session's enlarged view.
	NewLock func() visual.Lock
}

// Service owns the open review sessions.
type Service struct {
	deps    Deps
	flights *verdict.Flights
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewLock == nil {
		d.NewLock = func() visual.Lock { return &visual.BlockFlag{} }
	}
	return &Service{
		deps:     d,
		flights:  verdict.NewFlights(),
		log:      d.Logger,
		sessions: map[string]*Session{},
	}
}

// Open starts a session for actor. With a projectID, the project and its
// history are fetched concurrently; a history failure is reported on the
// session notice rather than failing the open.
func (s *Service) Open(ctx context.Context, actor *domain.Actor, projectID string) (*Session, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	sess := s.newSession(actor.ID)

	if projectID != "" {
		var project domain.Project
		var loadErr error
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p, err := s.deps.Projects.GetProject(gctx, projectID)
			if err != nil {
				return err
			}
			project = p
			return nil
		})
		g.Go(func() error {
			_, loadErr = sess.history.Load(gctx, projectID)
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if project.OwnerID != actor.ID {
			return nil, domain.ErrForbidden
		}
		sess.project = &project
		if loadErr != nil {
			sess.notice = loadErr.Error()
		}
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.log.Info("review session opened", "session_id", sess.id, "actor_id", actor.ID, "project_id", projectID)
	return sess, nil
}

// Get returns the session if it exists and belongs to actor.
func (s *Service) Get(id string, actor *domain.Actor) (*Session, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok || sess.ownerID != actor.ID {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// Close abandons a session. Requests it already dispatched still complete but
// no longer patch anything.
func (s *Service) Close(id string, actor *domain.Actor) error {
	sess, err := s.Get(id, actor)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	sess.Close()
	s.log.Info("review session closed", "session_id", id)
	return nil
}

// CloseAll closes every session; used on shutdown.
func (s *Service) CloseAll() {
	s.mu.Lock()
	open := s.sessions
	s.sessions = map[string]*Session{}
	s.mu.Unlock()
	for _, sess := range open {
		sess.Close()
	}
}

func (s *Service) newSession(ownerID string) *Session {
	return &Session{
		id:       uuid.NewString(),
		ownerID:  ownerID,
		deps:     s.deps,
		flights:  s.flights,
		log:      s.log,
		history:  history.NewSynchronizer(s.deps.History, s.log),
		visual:   visual.NewController(false, s.deps.NewLock()),
		machines: map[string]*verdict.Machine{},
	}
}
