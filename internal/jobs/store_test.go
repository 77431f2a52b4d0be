package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func queuedJob(id string) *Job {
	return &Job{
		JobID:          id,
		CollectionName: "products",
		UploadID:       "upload-1",
		Status:         StatusQueued,
	}
}

func TestStatus(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), string(s))
		assert.False(t, s.IsActive(), string(s))
	}
	active := []Status{StatusQueued, StatusProcessing}
	for _, s := range active {
		assert.False(t, s.IsTerminal(), string(s))
		assert.True(t, s.IsActive(), string(s))
	}
}

func TestUpsert_InsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, queuedJob("j1")))

	job, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "j1", job.JobID)
	assert.Equal(t, "products", job.CollectionName)
	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, 0, job.Processed)
	assert.Empty(t, job.ErrorSample)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestUpsert_OverwritesNotDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, queuedJob("j1")))
	first, err := s.Get(ctx, "j1")
	require.NoError(t, err)

	updated := queuedJob("j1")
	updated.Status = StatusProcessing
	updated.TotalRecords = 100
	updated.Processed = 50
	updated.Failed = 2
	updated.ErrorSample = "Row 3: no text content"
	require.NoError(t, s.Upsert(ctx, updated))

	job, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, job.Status)
	assert.Equal(t, 100, job.TotalRecords)
	assert.Equal(t, 50, job.Processed)
	assert.Equal(t, 2, job.Failed)
	assert.Equal(t, "Row 3: no text content", job.ErrorSample)
	// First insert's creation time survives the overwrite.
	assert.Equal(t, first.CreatedAt, job.CreatedAt)

	recent, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestUpsert_IdempotentForIdenticalArguments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := queuedJob("j1")
	job.Status = StatusCompleted
	job.Processed = 5
	require.NoError(t, s.Upsert(ctx, job))
	before, err := s.Get(ctx, "j1")
	require.NoError(t, err)

	require.NoError(t, s.Upsert(ctx, job))
	after, err := s.Get(ctx, "j1")
	require.NoError(t, err)

	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Processed, after.Processed)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)
	job, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		cancelled bool
	}{
		{"queued job cancels", StatusQueued, true},
		{"processing job cancels", StatusProcessing, true},
		{"completed job does not", StatusCompleted, false},
		{"failed job does not", StatusFailed, false},
		{"cancelled job does not re-cancel", StatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()

			job := queuedJob("j1")
			job.Status = tt.status
			require.NoError(t, s.Upsert(ctx, job))

			ok, err := s.Cancel(ctx, "j1")
			require.NoError(t, err)
			assert.Equal(t, tt.cancelled, ok)

			got, err := s.Get(ctx, "j1")
			require.NoError(t, err)
			if tt.cancelled {
				assert.Equal(t, StatusCancelled, got.Status)
			} else {
				// Terminal states are never mutated.
				assert.Equal(t, tt.status, got.Status)
			}
		})
	}
}

func TestCancel_MissingJob(t *testing.T) {
	s := newTestStore(t)
	ok, err := s.Cancel(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	statuses := []Status{StatusQueued, StatusProcessing, StatusCompleted,
		StatusFailed, StatusCancelled}
	for i, status := range statuses {
		job := queuedJob(fmt.Sprintf("j%d", i))
		job.Status = status
		require.NoError(t, s.Upsert(ctx, job))
	}

	active, err := s.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, job := range active {
		assert.True(t, job.Status.IsActive())
	}
}

func TestListRecent_OrderAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insert := func(id string, status Status) {
		job := queuedJob(id)
		job.Status = status
		require.NoError(t, s.Upsert(ctx, job))
	}
	insert("done-1", StatusCompleted)
	insert("queued-1", StatusQueued)
	insert("proc-1", StatusProcessing)
	insert("failed-1", StatusFailed)

	recent, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	// Processing first, then queued, then the rest.
	assert.Equal(t, "proc-1", recent[0].JobID)
	assert.Equal(t, "queued-1", recent[1].JobID)

	capped, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestListForCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := queuedJob("j1")
	b := queuedJob("j2")
	b.CollectionName = "other"
	require.NoError(t, s.Upsert(ctx, a))
	require.NoError(t, s.Upsert(ctx, b))

	got, err := s.ListForCollection(ctx, "products")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "j1", got[0].JobID)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	ctx := context.Background()

	s, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, queuedJob("j1")))
	require.NoError(t, s.Close())

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	job, err := reopened.Get(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, StatusQueued, job.Status)
}

func TestStore_ClosedRejectsWrites(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Upsert(context.Background(), queuedJob("j1"))
	assert.Error(t, err)
}
