package comparisons

import (
	"context"
	"errors"
	"testing"

	"diffreview/internal/domain"
)

type fakeAnalyzer struct {
	result domain.Comparison
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error) {
	f.calls++
	return f.result, f.err
}

type memRepo struct {
	saved   []domain.Comparison
	err     error
	deleted []string
}

func (m *memRepo) InsertComparison(ctx context.Context, c domain.Comparison) (domain.Comparison, error) {
	if m.err != nil {
		return domain.Comparison{}, m.err
	}
	c.ID = "c1"
	m.saved = append(m.saved, c)
	return c, nil
}

func (m *memRepo) GetComparison(ctx context.Context, id string) (domain.Comparison, error) {
	for _, c := range m.saved {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Comparison{}, domain.ErrNotFound
}

func (m *memRepo) ListOwnerComparisons(ctx context.Context, ownerID string) ([]domain.Comparison, error) {
	var out []domain.Comparison
	for _, c := range m.saved {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteComparison(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

var actor = domain.Actor{ID: "u1"}

func urlRequest() domain.CompareRequest {
	pid := "p1"
	return domain.CompareRequest{
		Title:       " Hero banner ",
		Image1:      &domain.ImageUpload{Filename: "banner.png", Data: []byte{1}},
		TemplateURL: "https://shop.example.com",
		ProjectID:   &pid,
	}
}

func TestProcess_StoresPendingComparison(t *testing.T) {
	an := &fakeAnalyzer{result: domain.Comparison{SimilarityScore: 91.5, DifferencesCount: 2, Status: domain.VerdictFail}}
	repo := &memRepo{}
	svc := New(an, repo, nil)

	c, err := svc.Process(context.Background(), urlRequest(), actor)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if c.ID != "c1" || c.Title != "Hero banner" || c.OwnerID != "u1" {
		t.Errorf("unexpected comparison %+v", c)
	}
	if c.Status != domain.VerdictPending {
		t.Errorf("status %q, want pending", c.Status)
	}
	if c.Method != domain.MethodTemplateMatching || c.TargetURL == nil || *c.TargetURL != "https://shop.example.com" {
		t.Errorf("method=%q target=%v", c.Method, c.TargetURL)
	}
	if c.ProjectID == nil || *c.ProjectID != "p1" {
		t.Error("project not carried")
	}
}

func TestProcess_ValidationStopsBeforeEngine(t *testing.T) {
	an := &fakeAnalyzer{}
	svc := New(an, &memRepo{}, nil)
	req := urlRequest()
	req.Image1 = nil
	_, err := svc.Process(context.Background(), req, actor)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || an.calls != 0 {
		t.Fatalf("err=%v calls=%d", err, an.calls)
	}
}

func TestProcess_EngineErrorIsComparisonRequestError(t *testing.T) {
	svc := New(&fakeAnalyzer{err: errors.New("connection refused")}, &memRepo{}, nil)
	_, err := svc.Process(context.Background(), urlRequest(), actor)
	var ce *domain.ComparisonRequestError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ComparisonRequestError, got %T", err)
	}
	if err.Error() != "comparison request failed" {
		t.Errorf("message %q", err.Error())
	}
}

func TestProcess_RejectsInvalidEngineResult(t *testing.T) {
	repo := &memRepo{}
	svc := New(&fakeAnalyzer{result: domain.Comparison{SimilarityScore: 140}}, repo, nil)
	if _, err := svc.Process(context.Background(), urlRequest(), actor); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.saved) != 0 {
		t.Error("invalid result was stored")
	}
}

func TestGetAndDelete_CreatorOnly(t *testing.T) {
	repo := &memRepo{saved: []domain.Comparison{{ID: "c1", OwnerID: "u1"}, {ID: "c2", OwnerID: "u2"}}}
	svc := New(&fakeAnalyzer{}, repo, nil)
	ctx := context.Background()

	if c, err := svc.Get(ctx, &actor, "c1"); err != nil || c.ID != "c1" {
		t.Errorf("Get own: %+v %v", c, err)
	}
	if _, err := svc.Get(ctx, &actor, "c2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Get foreign: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(ctx, &actor, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get missing: expected ErrNotFound, got %v", err)
	}

	if err := svc.Delete(ctx, &actor, "c2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Delete foreign: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, &actor, "c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "c1" {
		t.Errorf("deleted %v", repo.deleted)
	}
}

func TestListByOwner_OnlySelf(t *testing.T) {
	repo := &memRepo{saved: []domain.Comparison{{ID: "c1", OwnerID: "u1"}, {ID: "c2", OwnerID: "u2"}}}
	svc := New(&fakeAnalyzer{}, repo, nil)

	list, err := svc.ListByOwner(context.Background(), &actor, "u1")
	if err != nil || len(list) != 1 || list[0].ID != "c1" {
		t.Errorf("ListByOwner: %+v %v", list, err)
	}
	if _, err := svc.ListByOwner(context.Background(), &actor, "u2"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	var pe *domain.PreconditionError
	if _, err := svc.ListByOwner(context.Background(), nil, "u1"); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError, got %v", err)
	}
}
