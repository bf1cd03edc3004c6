package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/appctx"
	"bitbucket.org/mmdatafocus/records_backend/config"
	"bitbucket.org/mmdatafocus/records_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultWorkers = 4
	defaultQueue   = 256

	// Transient failures retry up to MaxRetries times with a fixed delay
	// between attempts. Permanent failures fail the job immediately.
	MaxRetries        = 3
	defaultRetryDelay = 60 * time.Second
)

// TaskFunc is one unit of background work. The returned value becomes the
// job's result; a transient error (utils.IsTransient) schedules a retry.
type TaskFunc func(ctx context.Context) (interface{}, error)

type work struct {
	jobID string
	ctx   context.Context
	fn    TaskFunc
}

// Executor runs submitted tasks on a bounded worker pool and tracks their
// lifecycle in the store.
type Executor struct {
	store      *Store
	queue      chan work
	retryDelay time.Duration
	workers    int
	wg         sync.WaitGroup
	stop       chan struct{}
	stopOnce   sync.Once
}

type ExecutorOption func(*Executor)

// WithRetryDelay overrides the delay between retry attempts.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.retryDelay = d }
}

func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

func NewExecutor(store *Store, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:      store,
		queue:      make(chan work, defaultQueue),
		retryDelay: defaultRetryDelay,
		workers:    config.IntFromEnv("JOB_WORKERS", defaultWorkers),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
}

// Stop closes the intake and waits for in-flight tasks. Pending retries are
// abandoned; their jobs stay in their last recorded state.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
}

// Submit registers a pending job and queues it without blocking; a full
// queue rejects the submission instead of stalling the request.
func (e *Executor) Submit(ctx context.Context, kind string, fn TaskFunc) (string, error) {
	jobID := uuid.NewString()
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	now := time.Now()
	e.store.Put(&Job{
		ID:         jobID,
		Kind:       kind,
		BusinessId: businessId,
		State:      JobStatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})

	item := work{jobID: jobID, ctx: detachContext(ctx), fn: fn}
	select {
	case e.queue <- item:
		return jobID, nil
	default:
		e.finish(jobID, nil, "job queue is full")
		return "", fmt.Errorf("job queue is full")
	}
}

// Poll returns the job's current status for the tenant that submitted it.
func (e *Executor) Poll(ctx context.Context, jobID string) (Job, bool) {
	job, ok := e.store.Get(jobID)
	if !ok {
		return Job{}, false
	}
	businessId, _ := utils.GetBusinessIdFromContext(ctx)
	if job.BusinessId != "" && job.BusinessId != businessId {
		return Job{}, false
	}
	return job, true
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stop:
			return
		case item := <-e.queue:
			e.run(item)
		}
	}
}

func (e *Executor) run(item work) {
	logger := config.GetLogger()

	e.store.update(item.jobID, func(job *Job) {
		job.State = JobStateRunning
	})

	result, err := item.fn(item.ctx)
	if err == nil {
		e.finish(item.jobID, result, "")
		return
	}

	job, ok := e.store.Get(item.jobID)
	if !ok {
		return
	}

	if utils.IsTransient(err) && job.RetryCount < MaxRetries {
		e.store.update(item.jobID, func(j *Job) {
			j.RetryCount++
			j.State = JobStatePending
			j.Error = err.Error()
		})
		logger.WithFields(logrus.Fields{
			"module": "jobs",
			"job_id": item.jobID,
			"kind":   job.Kind,
			"retry":  job.RetryCount + 1,
		}).Warn("task failed, scheduling retry: ", err)

		time.AfterFunc(e.retryDelay, func() {
			select {
			case e.queue <- item:
			case <-e.stop:
			}
		})
		return
	}

	config.LogError(logger, "jobs", "run", "job failed permanently", map[string]interface{}{
		"job_id":      item.jobID,
		"kind":        job.Kind,
		"retry_count": job.RetryCount,
	}, err)
	e.finish(item.jobID, nil, err.Error())
}

func (e *Executor) finish(jobID string, result interface{}, errMsg string) {
	now := time.Now()
	e.store.update(jobID, func(job *Job) {
		if errMsg == "" {
			job.State = JobStateSucceeded
			job.Result = result
			job.Error = ""
		} else {
			job.State = JobStateFailed
			job.Error = errMsg
		}
		job.FinishedAt = &now
	})
}

// detachContext copies the identity values to a fresh context so a task
// outlives the HTTP request that submitted it.
func detachContext(ctx context.Context) context.Context {
	detached := context.Background()
	for _, key := range []appctx.ContextKey{
		appctx.ContextKeyBusinessId,
		appctx.ContextKeyUserId,
		appctx.ContextKeyUserName,
		appctx.ContextKeyCorrelationId,
		appctx.ContextKeyIsAdmin,
	} {
		if value := ctx.Value(key); value != nil {
			detached = context.WithValue(detached, key, value)
		}
	}
	return detached
}
