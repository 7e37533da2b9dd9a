package comparisons

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"diffreview/internal/domain"
	"diffreview/internal/ports"
)

// Service sends a comparison request through the analysis engine and stores
// the result as a new, pending comparison.
type Service struct {
	analyzer ports.Analyzer
	repo     ports.ComparisonRepository
	log      *slog.Logger
}

func New(analyzer ports.Analyzer, repo ports.ComparisonRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{analyzer: analyzer, repo: repo, log: logger}
}

// Process implements comparerunner.Processor.
func (s *Service) Process(ctx context.Context, req domain.CompareRequest, actor domain.Actor) (domain.Comparison, error) {
	if err := req.Validate(); err != nil {
		return domain.Comparison{}, err
	}
	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		var ce *domain.ComparisonRequestError
		if !errors.As(err, &ce) {
			err = &domain.ComparisonRequestError{Err: err}
		}
		return domain.Comparison{}, err
	}

	c := result
	c.ID = ""
	c.Title = strings.TrimSpace(req.Title)
	c.OwnerID = actor.ID
	c.ProjectID = req.ProjectID
	c.Method = req.Method()
	if c.Method == domain.MethodTemplateMatching {
		u := strings.TrimSpace(req.TemplateURL)
		c.TargetURL = &u
	}
	c.Status = domain.VerdictPending
	if err := c.Validate(); err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Message: "analysis returned an invalid result: " + err.Error(), Err: err}
	}

	stored, err := s.repo.InsertComparison(ctx, c)
	if err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Message: "comparison could not be saved", Err: err}
	}
	s.log.Info("comparison stored", "comparison_id", stored.ID, "method", stored.Method, "score", stored.SimilarityScore)
	return stored, nil
}

// Get returns a comparison created by actor.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, id string) (domain.Comparison, error) {
	if err := domain.RequireActor(actor); err != nil {
		return domain.Comparison{}, err
	}
	c, err := s.repo.GetComparison(ctx, id)
	if err != nil {
		return domain.Comparison{}, err
	}
	if c.OwnerID != actor.ID {
		return domain.Comparison{}, domain.ErrForbidden
	}
	return c, nil
}

// ListByOwner is a reviewer's own comparison history across projects.
func (s *Service) ListByOwner(ctx context.Context, actor *domain.Actor, ownerID string) ([]domain.Comparison, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	if ownerID != actor.ID {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListOwnerComparisons(ctx, ownerID)
}

// Delete implements ports.ComparisonDeleter.
func (s *Service) Delete(ctx context.Context, actor *domain.Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteComparison(ctx, id); err != nil {
		return err
	}
	s.log.Info("comparison deleted", "comparison_id", id, "actor_id", actor.ID)
	return nil
}
