package ports

import (
	"context"

	"diffreview/internal/domain"
)

// Comparer runs a comparison through the analysis engine and persists it.
type Comparer interface {
	Compare(ctx context.Context, req domain.CompareRequest, actor domain.Actor) (domain.Comparison, error)
}

// ComparisonDeleter removes a comparison on behalf of actor. Only its
// creator may delete it.
type ComparisonDeleter interface {
	Delete(ctx context.Context, actor *domain.Actor, id string) error
}

// Analyzer is the external image-comparison engine. The returned comparison
// has no identity yet.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.CompareRequest) (domain.Comparison, error)
}

// ActorResolver looks up the reviewer behind an authenticated request.
type ActorResolver interface {
	Resolve(ctx context.Context, actorID string) (actor domain.Actor, found bool, err error)
}
