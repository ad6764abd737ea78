package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

func openTestStore(t *testing.T) *BadgerDB {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return &BadgerDB{store: store}
}

func TestJobStorageSaveAndGet(t *testing.T) {
	db := openTestStore(t)
	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := &models.Job{
		ID:        "job-1",
		Type:      models.JobTypeGeneration,
		Status:    models.JobStatusQueued,
		Request:   models.GenerationRequest{Topic: "Go", Count: 5},
		CreatedAt: time.Now(),
	}
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	loaded, err := storage.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if loaded.Status != models.JobStatusQueued {
		t.Errorf("Expected status queued, got %s", loaded.Status)
	}
	if loaded.Request.Topic != "Go" {
		t.Errorf("Expected topic Go, got %s", loaded.Request.Topic)
	}
}

func TestJobStorageUpdateStatus(t *testing.T) {
	db := openTestStore(t)
	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := &models.Job{
		ID:        "job-1",
		Type:      models.JobTypeGeneration,
		Status:    models.JobStatusQueued,
		CreatedAt: time.Now(),
	}
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	job.MarkActive()
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	job.MarkCompleted()
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	loaded, err := storage.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != models.JobStatusCompleted {
		t.Errorf("Expected status completed, got %s", loaded.Status)
	}
	if loaded.AttemptsMade != 1 {
		t.Errorf("Expected 1 attempt, got %d", loaded.AttemptsMade)
	}
	if loaded.CompletedAt == nil {
		t.Error("Expected CompletedAt to be set")
	}
}

func TestJobStorageGetMissing(t *testing.T) {
	db := openTestStore(t)
	storage := NewJobStorage(db, arbor.NewLogger())

	_, err := storage.GetJob(context.Background(), "nope")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestJobStorageRequiresID(t *testing.T) {
	db := openTestStore(t)
	storage := NewJobStorage(db, arbor.NewLogger())

	if err := storage.SaveJob(context.Background(), &models.Job{}); err == nil {
		t.Error("Expected error saving job without ID")
	}
	if err := storage.SaveJob(context.Background(), nil); err == nil {
		t.Error("Expected error saving nil job")
	}
}

func TestJobStorageListByStatus(t *testing.T) {
	db := openTestStore(t)
	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	statuses := []models.JobStatus{
		models.JobStatusQueued,
		models.JobStatusActive,
		models.JobStatusCompleted,
		models.JobStatusCompleted,
	}
	for i, status := range statuses {
		job := &models.Job{
			ID:        string(rune('a' + i)),
			Type:      models.JobTypeGeneration,
			Status:    status,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := storage.SaveJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	completed, err := storage.ListJobs(ctx, models.JobStatusCompleted, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 2 {
		t.Errorf("Expected 2 completed jobs, got %d", len(completed))
	}

	all, err := storage.ListJobs(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 jobs, got %d", len(all))
	}

	// Newest first
	if all[0].CreatedAt.Before(all[len(all)-1].CreatedAt) {
		t.Error("Expected jobs sorted newest first")
	}

	limited, err := storage.ListJobs(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 jobs with limit, got %d", len(limited))
	}
}
