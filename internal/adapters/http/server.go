package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"diffreview/internal/classify"
	"diffreview/internal/domain"
	"diffreview/internal/ports"
	comparesvc "diffreview/internal/services/comparisons"
	projectsvc "diffreview/internal/services/projects"
	"diffreview/internal/services/review"
	"diffreview/internal/visual"
)

const actorHeader = "X-Actor-ID"

// Server exposes review sessions, projects and compare jobs over JSON.
type Server struct {
	reviews     *review.Service
	projects    *projectsvc.Service
	comparisons *comparesvc.Service
	jobs        ports.JobRepository
	actors      ports.ActorResolver
	profiles    *classify.Registry
	log         *slog.Logger
}

func New(reviews *review.Service, projects *projectsvc.Service, comparisons *comparesvc.Service, jobs ports.JobRepository, actors ports.ActorResolver, profiles *classify.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{reviews: reviews, projects: projects, comparisons: comparisons, jobs: jobs, actors: actors, profiles: profiles, log: logger}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)

	r.Group(func(r chi.Router) {
		r.Use(s.requireActor)

		r.Get("/projects", s.listProjects)
		r.Post("/projects", s.createProject)
		r.Get("/projects/{projectID}", s.getProject)
		r.Put("/projects/{projectID}", s.updateProject)
		r.Delete("/projects/{projectID}", s.deleteProject)

		r.Get("/comparisons/{comparisonID}", s.getComparison)
		r.Delete("/comparisons/{comparisonID}", s.deleteComparison)
		r.Get("/users/{userID}/comparisons", s.listUserComparisons)

		r.Get("/jobs/{jobID}", s.getJob)

		r.Post("/sessions", s.openSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.closeSession)
			r.Post("/comparisons", s.compare)
			r.Delete("/comparisons/{comparisonID}", s.deleteSessionComparison)
			r.Post("/history/reload", s.reloadHistory)
			r.Post("/history/{comparisonID}/select", s.selectHistory)
			r.Post("/back", s.back)
			r.Post("/heatmap/toggle", s.toggleHeatmap)
			r.Put("/enlarged", s.openEnlarged)
			r.Delete("/enlarged", s.closeEnlarged)
			r.Post("/dismiss", s.dismiss)
			r.Put("/verdict", s.putVerdict)
			r.Delete("/notice", s.dismissNotice)
		})
	})
	return r
}

type ctxKey int

const actorKey ctxKey = iota

// requireActor resolves the reviewer named by the actor header. Every
// operation below it receives the actor explicitly from the context.
func (s *Server) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(actorHeader))
		if id == "" {
			s.writeError(w, r, &runtimeError{code: http.StatusUnauthorized, msg: "missing " + actorHeader + " header"})
			return
		}
		actor, found, err := s.actors.Resolve(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !found {
			s.writeError(w, r, &runtimeError{code: http.StatusUnauthorized, msg: "unknown actor"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, &actor)))
	})
}

func actorFrom(r *http.Request) *domain.Actor {
	a, _ := r.Context().Value(actorKey).(*domain.Actor)
	return a
}

func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", &domain.ValidationError{Field: name, Reason: err.Error()}
	}
	return v, nil
}

// profileParam picks the classification preset from ?profile=.
func (s *Server) profileParam(r *http.Request) (classify.Profile, error) {
	var name string
	if err := runtime.BindQueryParameter("form", true, false, "profile", r.URL.Query(), &name); err != nil {
		return classify.Profile{}, &domain.ValidationError{Field: "profile", Reason: err.Error()}
	}
	p, ok := s.profiles.Lookup(name)
	if !ok {
		return classify.Profile{}, &domain.ValidationError{Field: "profile", Reason: "unknown profile " + name}
	}
	return p, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &runtimeError{code: http.StatusBadRequest, msg: "invalid JSON body: " + err.Error()}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func statusFor(err error) (int, string) {
	var (
		rt *runtimeError
		ve *domain.ValidationError
		pe *domain.PreconditionError
	)
	switch {
	case errors.As(err, &rt):
		return rt.code, rt.msg
	case domain.IsCollaboratorError(err):
		// collaborator errors may wrap a validation error; the collaborator's message wins
		return http.StatusBadGateway, err.Error()
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ve.Error()
	case errors.As(err, &pe):
		return http.StatusConflict, pe.Error()
	case errors.Is(err, domain.ErrInFlight), errors.Is(err, domain.ErrNoComparison), errors.Is(err, visual.ErrNoHeatmap):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

type runtimeError struct {
	code int
	msg  string
}

func (e *runtimeError) Error() string { return e.msg }

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
