package ports

import (
	"context"

	"diffreview/internal/domain"
)

// StatusUpdater persists verdict changes in the store of record.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, comparisonID string, status domain.Verdict, actorID string) (domain.StatusUpdate, error)
}

// HistoryLister returns a project's comparisons, most recent first.
type HistoryLister interface {
	ListProjectComparisons(ctx context.Context, projectID string) ([]domain.Comparison, error)
}

// ComparisonRepository stores analysed comparisons.
type ComparisonRepository interface {
	InsertComparison(ctx context.Context, c domain.Comparison) (domain.Comparison, error)
	GetComparison(ctx context.Context, id string) (domain.Comparison, error)
	// ListOwnerComparisons returns every comparison ownerID created, most recent first.
	ListOwnerComparisons(ctx context.Context, ownerID string) ([]domain.Comparison, error)
	DeleteComparison(ctx context.Context, id string) error
}

// ProjectRepository is plain CRUD over projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, p domain.NewProject, ownerID string) (domain.Project, error)
	ListProjects(ctx context.Context, ownerID string) ([]domain.Project, error)
	GetProject(ctx context.Context, id string) (domain.Project, error)
	UpdateProject(ctx context.Context, id string, p domain.NewProject) (domain.Project, error)
	DeleteProject(ctx context.Context, id string) error
}
