package ports

import (
	"context"
	"time"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// CompareJob records one pass of a comparison through the engine.
type CompareJob struct {
	ID           string
	Title        string
	ActorID      string
	ProjectID    *string
	Status       JobStatus
	ComparisonID *string
	Error        *string
	QueuedAt     time.Time
	FinishedAt   *time.Time
}

// JobRepository tracks compare jobs from queue to completion.
type JobRepository interface {
	CreateJob(ctx context.Context, title, actorID string, projectID *string) (jobID string, err error)
	MarkRunning(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID, comparisonID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
	GetJob(ctx context.Context, jobID string) (CompareJob, error)
}
