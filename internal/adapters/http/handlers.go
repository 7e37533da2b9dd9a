package httpadapter

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"diffreview/internal/domain"
	"diffreview/internal/services/review"
	"diffreview/internal/visual"
)

const maxUploadBytes = 32 << 20

type createProjectBody struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	FigmaURL    *string `json:"figma_url"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.projects.List(r.Context(), actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]projectView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProjectView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var body createProjectBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.projects.Create(r.Context(), actorFrom(r), domain.NewProject{Name: body.Name, Description: body.Description, FigmaURL: body.FigmaURL})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectView(p))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.projects.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(p))
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body createProjectBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.projects.Update(r.Context(), actorFrom(r), id, domain.NewProject{Name: body.Name, Description: body.Description, FigmaURL: body.FigmaURL})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectView(p))
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "projectID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.projects.Delete(r.Context(), actorFrom(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "jobID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	j, err := s.jobs.GetJob(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if j.ActorID != actorFrom(r).ID {
		s.writeError(w, r, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toJobView(j))
}

func (s *Server) getComparison(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "comparisonID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.profileParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.comparisons.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonView(c, profile))
}

func (s *Server) deleteComparison(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "comparisonID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.comparisons.Delete(r.Context(), actorFrom(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUserComparisons(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "userID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.profileParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.comparisons.ListByOwner(r.Context(), actorFrom(r), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]comparisonView, 0, len(list))
	for _, c := range list {
		out = append(out, toComparisonView(c, profile))
	}
	writeJSON(w, http.StatusOK, out)
}

type openSessionBody struct {
	ProjectID string `json:"project_id"`
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	var body openSessionBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	profile, err := s.profileParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.reviews.Open(r.Context(), actorFrom(r), body.ProjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(sess.View(), profile))
}

// withSession resolves the session in the path and the display profile, runs
// fn, and replies with the session's view.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*review.Session) error) {
	id, err := pathParam(r, "sessionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.profileParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.reviews.Get(id, actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if fn != nil {
		if err := fn(sess); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toSessionView(sess.View(), profile))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, nil)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "sessionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.reviews.Close(id, actorFrom(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		req, err := readCompareRequest(w, r)
		if err != nil {
			return err
		}
		_, err = sess.Compare(r.Context(), actorFrom(r), req)
		return err
	})
}

func readCompareRequest(w http.ResponseWriter, r *http.Request) (domain.CompareRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return domain.CompareRequest{}, &runtimeError{code: http.StatusBadRequest, msg: "invalid multipart body: " + err.Error()}
	}
	req := domain.CompareRequest{
		Title:       r.FormValue("title"),
		TemplateURL: r.FormValue("compare_url"),
	}
	var err error
	if req.Image1, err = readUpload(r, "image1"); err != nil {
		return req, err
	}
	if req.Image2, err = readUpload(r, "image2"); err != nil {
		return req, err
	}
	return req, nil
}

// readUpload returns nil when the field is absent.
func readUpload(r *http.Request, field string) (*domain.ImageUpload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Reason: err.Error()}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Reason: err.Error()}
	}
	return &domain.ImageUpload{Filename: filepath.Base(hdr.Filename), Data: data}, nil
}

func (s *Server) deleteSessionComparison(w http.ResponseWriter, r *http.Request) {
	cid, err := pathParam(r, "comparisonID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *review.Session) error {
		return sess.DeleteComparison(r.Context(), actorFrom(r), cid)
	})
}

func (s *Server) reloadHistory(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		_, err := sess.ReloadHistory(r.Context())
		return err
	})
}

func (s *Server) selectHistory(w http.ResponseWriter, r *http.Request) {
	cid, err := pathParam(r, "comparisonID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *review.Session) error {
		_, err := sess.SelectHistory(cid)
		return err
	})
}

func (s *Server) back(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		sess.Back()
		return nil
	})
}

func (s *Server) toggleHeatmap(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		_, err := sess.ToggleHeatmap()
		return err
	})
}

type enlargeBody struct {
	Target string `json:"target"`
}

func (s *Server) openEnlarged(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		var body enlargeBody
		if err := decodeJSON(r, &body); err != nil {
			return err
		}
		t, err := visual.ParseTarget(body.Target)
		if err != nil {
			return err
		}
		return sess.OpenEnlarged(t)
	})
}

func (s *Server) closeEnlarged(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		sess.CloseEnlarged()
		return nil
	})
}

type dismissBody struct {
	Signal string `json:"signal"`
}

func (s *Server) dismiss(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		var body dismissBody
		if err := decodeJSON(r, &body); err != nil {
			return err
		}
		return sess.Dismiss(visual.Signal(body.Signal))
	})
}

type verdictBody struct {
	Status string `json:"status"`
}

// putVerdict replies with the transition as well as the session view.
func (s *Server) putVerdict(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "sessionID")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, err := s.profileParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.reviews.Get(id, actorFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body verdictBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	// a dispatched update runs to completion even if the client goes away
	t, err := sess.RequestVerdict(context.WithoutCancel(r.Context()), actorFrom(r), domain.Verdict(body.Status))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verdictResponse{Transition: toTransitionView(t), Session: toSessionView(sess.View(), profile)})
}

func (s *Server) dismissNotice(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *review.Session) error {
		sess.DismissNotice()
		return nil
	})
}
