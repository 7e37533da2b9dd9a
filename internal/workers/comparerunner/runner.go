package comparerunner

import (
	"context"
	"log/slog"
	"sync"

	"diffreview/internal/domain"
	"diffreview/internal/ports"
)

// Processor performs the comparison work for one job.
type Processor interface {
	Process(ctx context.Context, req domain.CompareRequest, actor domain.Actor) (domain.Comparison, error)
}

type task struct {
	ctx   context.Context
	jobID string
	req   domain.CompareRequest
	actor domain.Actor
	reply chan result
}

type result struct {
	c   domain.Comparison
	err error
}

// Pool bounds how many comparisons hit the analysis engine at once. Every
// comparison is recorded as a job whether it runs on the pool or inline.
type Pool struct {
	jobs      ports.JobRepository
	processor Processor
	log       *slog.Logger
	queue     chan task

	mu      sync.Mutex
	running bool
	stopped chan struct{}
}

func NewPool(jobs ports.JobRepository, processor Processor, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{jobs: jobs, processor: processor, log: logger, queue: make(chan task), stopped: make(chan struct{})}
}

// Run starts concurrency workers that stop when ctx is done. Without Run the
// pool processes every comparison inline.
func (p *Pool) Run(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		return
	}
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		p.running = false
		close(p.stopped)
		p.mu.Unlock()
	}()

	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for {
				select {
				case <-p.stopped:
					return
				case t := <-p.queue:
					c, err := ProcessInline(t.ctx, p.jobs, p.processor, t.jobID, t.req, t.actor)
					if err != nil {
						p.log.Warn("compare job failed", "worker", idx, "job_id", t.jobID, "err", err)
					}
					t.reply <- result{c: c, err: err}
				}
			}
		}(i)
	}
}

// Compare implements ports.Comparer.
func (p *Pool) Compare(ctx context.Context, req domain.CompareRequest, actor domain.Actor) (domain.Comparison, error) {
	jobID, err := p.jobs.CreateJob(ctx, req.Title, actor.ID, req.ProjectID)
	if err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Message: "comparison could not be queued", Err: err}
	}

	p.mu.Lock()
	running, stopped := p.running, p.stopped
	p.mu.Unlock()
	if !running {
		return ProcessInline(ctx, p.jobs, p.processor, jobID, req, actor)
	}

	t := task{ctx: ctx, jobID: jobID, req: req, actor: actor, reply: make(chan result, 1)}
	select {
	case p.queue <- t:
	case <-stopped:
		return ProcessInline(ctx, p.jobs, p.processor, jobID, req, actor)
	case <-ctx.Done():
		_ = p.jobs.MarkFailed(context.WithoutCancel(ctx), jobID, ctx.Err().Error())
		return domain.Comparison{}, ctx.Err()
	}
	select {
	case r := <-t.reply:
		return r.c, r.err
	case <-ctx.Done():
		return domain.Comparison{}, ctx.Err()
	}
}

// ProcessInline runs one job synchronously using the same bookkeeping as the
// pool workers: mark running, process, then complete or fail.
func ProcessInline(ctx context.Context, jobs ports.JobRepository, processor Processor, jobID string, req domain.CompareRequest, actor domain.Actor) (domain.Comparison, error) {
	bookkeeping := context.WithoutCancel(ctx)
	if err := jobs.MarkRunning(bookkeeping, jobID); err != nil {
		return domain.Comparison{}, &domain.ComparisonRequestError{Message: "comparison job could not start", Err: err}
	}
	c, err := processor.Process(ctx, req, actor)
	if err != nil {
		_ = jobs.MarkFailed(bookkeeping, jobID, err.Error())
		return domain.Comparison{}, err
	}
	// the comparison is already stored; a stale job row does not fail it
	_ = jobs.MarkCompleted(bookkeeping, jobID, c.ID)
	return c, nil
}
