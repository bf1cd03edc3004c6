package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/records_backend/utils"
)

func newTestExecutor(t *testing.T) (*Executor, *Store) {
	t.Helper()
	store := NewStore(time.Hour)
	executor := NewExecutor(store, WithWorkers(2), WithRetryDelay(5*time.Millisecond))
	executor.Start()
	t.Cleanup(executor.Stop)
	return executor, store
}

func waitForFinish(t *testing.T, executor *Executor, jobID string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := executor.Poll(context.Background(), jobID)
		if !ok {
			t.Fatalf("job %s disappeared", jobID)
		}
		if job.State.Finished() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never finished", jobID)
	return Job{}
}

func TestExecutorRunsTask(t *testing.T) {
	executor, _ := newTestExecutor(t)

	jobID, err := executor.Submit(context.Background(), "test", func(ctx context.Context) (interface{}, error) {
		return map[string]interface{}{"answer": 42}, nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForFinish(t, executor, jobID)
	if job.State != JobStateSucceeded {
		t.Fatalf("state: got %s", job.State)
	}
	if job.RetryCount != 0 {
		t.Fatalf("retry count: got %d", job.RetryCount)
	}
	result, ok := job.Result.(map[string]interface{})
	if !ok || result["answer"] != 42 {
		t.Fatalf("result: got %v", job.Result)
	}
	if job.FinishedAt == nil {
		t.Fatal("finished job must carry FinishedAt")
	}
}

func TestExecutorRetriesTransientFailure(t *testing.T) {
	executor, _ := newTestExecutor(t)

	var attempts atomic.Int32
	jobID, err := executor.Submit(context.Background(), "test", func(ctx context.Context) (interface{}, error) {
		if attempts.Add(1) < 3 {
			return nil, utils.Transient(errors.New("store unavailable"))
		}
		return "done", nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForFinish(t, executor, jobID)
	if job.State != JobStateSucceeded {
		t.Fatalf("state: got %s (error %q)", job.State, job.Error)
	}
	if job.RetryCount != 2 {
		t.Fatalf("retry count: got %d, want 2", job.RetryCount)
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("attempts: got %d, want 3", got)
	}
}

func TestExecutorExhaustsRetries(t *testing.T) {
	executor, _ := newTestExecutor(t)

	var attempts atomic.Int32
	jobID, err := executor.Submit(context.Background(), "test", func(ctx context.Context) (interface{}, error) {
		attempts.Add(1)
		return nil, utils.Transient(errors.New("still down"))
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForFinish(t, executor, jobID)
	if job.State != JobStateFailed {
		t.Fatalf("state: got %s", job.State)
	}
	if job.RetryCount != MaxRetries {
		t.Fatalf("retry count: got %d, want %d", job.RetryCount, MaxRetries)
	}
	// Initial attempt plus MaxRetries retries.
	if got := attempts.Load(); got != int32(MaxRetries+1) {
		t.Fatalf("attempts: got %d, want %d", got, MaxRetries+1)
	}
	if job.Error == "" {
		t.Fatal("failed job must carry the error message")
	}
}

func TestExecutorPermanentFailureDoesNotRetry(t *testing.T) {
	executor, _ := newTestExecutor(t)

	var attempts atomic.Int32
	jobID, err := executor.Submit(context.Background(), "test", func(ctx context.Context) (interface{}, error) {
		attempts.Add(1)
		return nil, utils.ErrorScopeNotFound
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForFinish(t, executor, jobID)
	if job.State != JobStateFailed {
		t.Fatalf("state: got %s", job.State)
	}
	if job.RetryCount != 0 {
		t.Fatalf("retry count: got %d, want 0", job.RetryCount)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("attempts: got %d, want 1", got)
	}
}

func TestPollEnforcesTenant(t *testing.T) {
	executor, _ := newTestExecutor(t)

	ownerCtx := utils.SetBusinessIdInContext(context.Background(), "biz-1")
	jobID, err := executor.Submit(ownerCtx, "test", func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, ok := executor.Poll(ownerCtx, jobID); !ok {
		t.Fatal("owner must see the job")
	}
	otherCtx := utils.SetBusinessIdInContext(context.Background(), "biz-2")
	if _, ok := executor.Poll(otherCtx, jobID); ok {
		t.Fatal("other tenant must not see the job")
	}
}

func TestPollUnknownJob(t *testing.T) {
	executor, _ := newTestExecutor(t)
	if _, ok := executor.Poll(context.Background(), "no-such-id"); ok {
		t.Fatal("expected not found")
	}
}

func TestSubmitPropagatesBusinessContext(t *testing.T) {
	executor, _ := newTestExecutor(t)

	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-9")
	jobID, err := executor.Submit(ctx, "test", func(taskCtx context.Context) (interface{}, error) {
		businessId, _ := utils.GetBusinessIdFromContext(taskCtx)
		return businessId, nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	job := waitForFinish(t, executor, jobID)
	if job.Result != "biz-9" {
		t.Fatalf("task context lost business id: got %v", job.Result)
	}
}
