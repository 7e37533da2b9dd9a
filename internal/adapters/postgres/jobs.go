package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"diffreview/internal/domain"
	"diffreview/internal/ports"
)

func (db *DB) CreateJob(ctx context.Context, title, actorID string, projectID *string) (string, error) {
	id := uuid.NewString()
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO comparison_jobs (id, title, actor_id, project_id, status)
		VALUES ($1, $2, $3, $4, 'queued')
	`, id, title, actorID, projectID)
	return id, err
}

func (db *DB) MarkRunning(ctx context.Context, jobID string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE comparison_jobs
		SET status = 'running', started_at = COALESCE(started_at, now()), attempts = attempts + 1
		WHERE id = $1
	`, jobID)
	return err
}

func (db *DB) MarkCompleted(ctx context.Context, jobID, comparisonID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := db.Pool.Exec(ctx, `
		UPDATE comparison_jobs SET status = 'completed', comparison_id = $2, error = NULL, finished_at = now()
		WHERE id = $1
	`, jobID, comparisonID)
	return err
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := db.Pool.Exec(ctx, `
		UPDATE comparison_jobs SET status = 'failed', error = $2, finished_at = now()
		WHERE id = $1
	`, jobID, reason)
	return err
}

func (db *DB) GetJob(ctx context.Context, jobID string) (ports.CompareJob, error) {
	var j ports.CompareJob
	var status string
	err := db.Pool.QueryRow(ctx, `
		SELECT id, title, actor_id, project_id, status, comparison_id, error, queued_at, finished_at
		FROM comparison_jobs WHERE id = $1
	`, jobID).Scan(&j.ID, &j.Title, &j.ActorID, &j.ProjectID, &status, &j.ComparisonID, &j.Error, &j.QueuedAt, &j.FinishedAt)
	if isNoRows(err) {
		return ports.CompareJob{}, domain.ErrNotFound
	}
	j.Status = ports.JobStatus(status)
	return j, err
}
