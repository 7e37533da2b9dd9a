package projects

import (
	"context"
	"errors"
	"testing"

	"diffreview/internal/domain"
)

type memProjects struct {
	byID    map[string]domain.Project
	deleted []string
}

func (m *memProjects) CreateProject(ctx context.Context, p domain.NewProject, ownerID string) (domain.Project, error) {
	out := domain.Project{ID: "p" + ownerID, Name: p.Name, OwnerID: ownerID}
	m.byID[out.ID] = out
	return out, nil
}

func (m *memProjects) ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range m.byID {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProjects) GetProject(ctx context.Context, id string) (domain.Project, error) {
	p, ok := m.byID[id]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	return p, nil
}

func (m *memProjects) UpdateProject(ctx context.Context, id string, p domain.NewProject) (domain.Project, error) {
	cur, ok := m.byID[id]
	if !ok {
		return domain.Project{}, domain.ErrNotFound
	}
	cur.Name, cur.Description, cur.FigmaURL = p.Name, p.Description, p.FigmaURL
	m.byID[id] = cur
	return cur, nil
}

func (m *memProjects) DeleteProject(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.byID, id)
	return nil
}

func TestCreate_TrimsAndRequiresName(t *testing.T) {
	svc := New(&memProjects{byID: map[string]domain.Project{}})
	actor := &domain.Actor{ID: "u1"}

	p, err := svc.Create(context.Background(), actor, domain.NewProject{Name: "  Checkout  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "Checkout" || p.OwnerID != "u1" {
		t.Errorf("unexpected project %+v", p)
	}

	_, err = svc.Create(context.Background(), actor, domain.NewProject{Name: " "})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	var pe *domain.PreconditionError
	if _, err := svc.Create(context.Background(), nil, domain.NewProject{Name: "x"}); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError, got %v", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	repo := &memProjects{byID: map[string]domain.Project{"p1": {ID: "p1", OwnerID: "u1"}}}
	svc := New(repo)

	if err := svc.Delete(context.Background(), &domain.Actor{ID: "u2"}, "p1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), &domain.Actor{ID: "u1"}, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Errorf("deleted %v", repo.deleted)
	}
	if err := svc.Delete(context.Background(), &domain.Actor{ID: "u1"}, "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_OwnerOnly(t *testing.T) {
	repo := &memProjects{byID: map[string]domain.Project{"p1": {ID: "p1", Name: "Old", OwnerID: "u1"}}}
	svc := New(repo)
	ctx := context.Background()
	figma := "https://figma.com/file/abc"

	if _, err := svc.Update(ctx, &domain.Actor{ID: "u2"}, "p1", domain.NewProject{Name: "New"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	var ve *domain.ValidationError
	if _, err := svc.Update(ctx, &domain.Actor{ID: "u1"}, "p1", domain.NewProject{Name: ""}); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	p, err := svc.Update(ctx, &domain.Actor{ID: "u1"}, "p1", domain.NewProject{Name: " New ", FigmaURL: &figma})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if p.Name != "New" || p.FigmaURL == nil || *p.FigmaURL != figma {
		t.Errorf("unexpected project %+v", p)
	}
	if _, err := svc.Update(ctx, &domain.Actor{ID: "u1"}, "missing", domain.NewProject{Name: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_OwnerOnly(t *testing.T) {
	svc := New(&memProjects{byID: map[string]domain.Project{"p1": {ID: "p1", OwnerID: "u1"}}})
	if p, err := svc.Get(context.Background(), &domain.Actor{ID: "u1"}, "p1"); err != nil || p.ID != "p1" {
		t.Errorf("Get: %+v %v", p, err)
	}
	if _, err := svc.Get(context.Background(), &domain.Actor{ID: "u2"}, "p1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}
