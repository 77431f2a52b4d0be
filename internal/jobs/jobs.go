// Package jobs persists ingestion job state and enforces its lifecycle:
//
//	queued → processing → {completed, failed, cancelled}
//
// The store itself is a plain keyed upsert; transition discipline lives in
// the pipeline, which is the only writer for a given job id. Cancel is the
// exception: it is guarded here so a terminal job can never be cancelled.
package jobs

import (
	"time"
)

// Status is a job lifecycle state.
type Status string

const (
	// StatusQueued is the initial state of a submitted job.
	StatusQueued Status = "queued"
	// StatusProcessing means the pipeline has started consuming records.
	StatusProcessing Status = "processing"
	// StatusCompleted means all records were attempted. Terminal.
	StatusCompleted Status = "completed"
	// StatusFailed means an unrecoverable error occurred before any
	// record was processed (e.g. an unparsable file). Terminal.
	StatusFailed Status = "failed"
	// StatusCancelled means an external cancel request was observed. Terminal.
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the job is queued or processing.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusProcessing
}

// Job is one ingestion job's persisted row. Processed and Failed are
// monotonically non-decreasing within a job and only the owning pipeline
// updates them.
type Job struct {
	JobID          string
	CollectionName string
	UploadID       string
	Status         Status
	TotalRecords   int
	Processed      int
	Failed         int
	ErrorSample    string // "" means no error recorded
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
