package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSubmitImportRecordsRejectsUnknownKind(t *testing.T) {
	executor := NewExecutor(NewStore(time.Hour))

	_, err := SubmitImportRecords(context.Background(), executor, "imports/upload.xlsx", "inventory")
	if !errors.Is(err, ErrUnknownImportKind) {
		t.Fatalf("expected unknown-kind error, got %v", err)
	}
}

func TestSubmitImportRecordsDefaultsKind(t *testing.T) {
	// Not started: the job stays queued so no storage access happens.
	executor := NewExecutor(NewStore(time.Hour))

	jobID, err := SubmitImportRecords(context.Background(), executor, "imports/upload.xlsx", "")
	if err != nil {
		t.Fatalf("SubmitImportRecords: %v", err)
	}

	job, ok := executor.Poll(context.Background(), jobID)
	if !ok {
		t.Fatalf("job %s not found", jobID)
	}
	if job.Kind != KindImportRecords {
		t.Fatalf("kind: got %q", job.Kind)
	}
	if job.State != JobStatePending {
		t.Fatalf("state: got %q", job.State)
	}
}
