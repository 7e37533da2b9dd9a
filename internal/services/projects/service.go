package projects

import (
	"context"
	"strings"

	"diffreview/internal/domain"
	"diffreview/internal/ports"
)

// Service is project CRUD scoped to the acting reviewer.
type Service struct {
	repo ports.ProjectRepository
}

func New(repo ports.ProjectRepository) *Service { return &Service{repo: repo} }

func (s *Service) Create(ctx context.Context, actor *domain.Actor, p domain.NewProject) (domain.Project, error) {
	if err := domain.RequireActor(actor); err != nil {
		return domain.Project{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.Project{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	return s.repo.CreateProject(ctx, p, actor.ID)
}

func (s *Service) List(ctx context.Context, actor *domain.Actor) ([]domain.Project, error) {
	if err := domain.RequireActor(actor); err != nil {
		return nil, err
	}
	return s.repo.ListProjects(ctx, actor.ID)
}

// Delete removes a project. Only its owner may delete it.
func (s *Service) Delete(ctx context.Context, actor *domain.Actor, id string) error {
	if err := domain.RequireActor(actor); err != nil {
		return err
	}
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if p.OwnerID != actor.ID {
		return domain.ErrForbidden
	}
	return s.repo.DeleteProject(ctx, id)
}

// Get returns a project owned by actor.
func (s *Service) Get(ctx context.Context, actor *domain.Actor, id string) (domain.Project, error) {
	if err := domain.RequireActor(actor); err != nil {
		return domain.Project{}, err
	}
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if p.OwnerID != actor.ID {
		return domain.Project{}, domain.ErrForbidden
	}
	return p, nil
}

// Update replaces a project's name, description and design link. Only its
// owner may update it.
func (s *Service) Update(ctx context.Context, actor *domain.Actor, id string, p domain.NewProject) (domain.Project, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return domain.Project{}, err
	}
	if err := p.Validate(); err != nil {
		return domain.Project{}, err
	}
	p.Name = strings.TrimSpace(p.Name)
	return s.repo.UpdateProject(ctx, id, p)
}
