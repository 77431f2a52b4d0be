// Package pipeline orchestrates indexing runs: load records, extract and
// chunk text, embed, and bulk-upsert into the search store, with progress
// and cancellation tracked through the job store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/semdex/internal/chunk"
	"github.com/Aman-CERP/semdex/internal/embed"
	semerrors "github.com/Aman-CERP/semdex/internal/errors"
	"github.com/Aman-CERP/semdex/internal/ingest"
	"github.com/Aman-CERP/semdex/internal/jobs"
	"github.com/Aman-CERP/semdex/internal/store"
)

// BatchSize is how many documents accumulate before a bulk upsert.
const BatchSize = 50

// maxSampleKeys caps how many record keys an error sample names.
const maxSampleKeys = 5

// Params describes one indexing run. Format may be empty, in which case
// the file is sniffed. TextFields is required; TitleField, IDField, and
// MetadataFields are optional.
type Params struct {
	JobID          string
	CollectionName string
	UploadID       string
	FilePath       string
	Format         ingest.Format
	TextFields     []string
	TitleField     string
	IDField        string
	MetadataFields []string
}

// Pipeline runs indexing jobs. One Run owns its job id exclusively; all
// outcomes are observable through the job store, never returned.
type Pipeline struct {
	jobs     *jobs.Store
	store    store.SearchStore
	embedder embed.Embedder
	logger   *slog.Logger
}

func New(jobStore *jobs.Store, searchStore store.SearchStore, embedder embed.Embedder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		jobs:     jobStore,
		store:    searchStore,
		embedder: embedder,
		logger:   logger,
	}
}

// recordOutcome is the result of processing one record: either documents
// ready for the batch, or a soft failure reason. Soft failures are
// counted, never raised.
type recordOutcome struct {
	docs   []*store.Document
	reason string
}

// runState tracks the mutable progress of one run.
type runState struct {
	job       *jobs.Job
	processed int
	failed    int
	sample    string
}

func (rs *runState) noteSample(reason string) {
	if rs.sample == "" {
		rs.sample = reason
	}
}

// Run executes the full indexing algorithm for one job. It never returns
// an error to the dispatcher; failures are flushed to the job store.
func (p *Pipeline) Run(ctx context.Context, params Params) {
	logger := p.logger.With("job_id", params.JobID, "collection", params.CollectionName)

	job, err := p.jobs.Get(ctx, params.JobID)
	if err != nil || job == nil {
		logger.Error("job not found at pipeline start", "error", err)
		return
	}
	// Cancellation that happened while the job sat queued.
	if job.Status == jobs.StatusCancelled {
		logger.Info("job cancelled before start")
		return
	}

	rs := &runState{job: job}

	records, err := p.loadRecords(params)
	if err != nil {
		logger.Error("load failed", "error", err)
		p.finalize(ctx, rs, jobs.StatusFailed, err.Error())
		return
	}

	// Load may be slow; re-check before doing any work.
	if p.cancelled(ctx, params.JobID) {
		logger.Info("job cancelled after load")
		return
	}

	job.TotalRecords = len(records)
	job.Processed = 0
	job.Failed = 0
	p.finalize(ctx, rs, jobs.StatusProcessing, "")

	// Store trouble is not fatal: only the load path may fail the job
	// before rows are counted. The run continues and every flush against
	// the missing collection counts its batch as failed.
	if err := p.ensureCollection(ctx, params.CollectionName); err != nil {
		logger.Warn("collection setup failed", "error", err)
	}

	batch := make([]*store.Document, 0, BatchSize)
	for i, record := range records {
		rowNumber := i + 1
		outcome := p.processRecord(ctx, params, record, rowNumber)
		if outcome.reason != "" {
			rs.failed++
			rs.noteSample(outcome.reason)
			continue
		}
		batch = append(batch, outcome.docs...)

		if len(batch) >= BatchSize {
			p.flushBatch(ctx, params.CollectionName, batch, rs)
			batch = batch[:0]
			// Poll before the progress write: a cancel that landed
			// between flushes must not be overwritten back to processing.
			if p.cancelled(ctx, params.JobID) {
				logger.Info("job cancelled mid-run",
					"processed", rs.processed, "failed", rs.failed)
				p.finalize(ctx, rs, jobs.StatusCancelled, "")
				return
			}
			p.finalize(ctx, rs, jobs.StatusProcessing, "")
		}
	}

	if len(batch) > 0 {
		p.flushBatch(ctx, params.CollectionName, batch, rs)
	}

	if p.cancelled(ctx, params.JobID) {
		p.finalize(ctx, rs, jobs.StatusCancelled, "")
		logger.Info("job cancelled at finish",
			"processed", rs.processed, "failed", rs.failed)
		return
	}

	p.finalize(ctx, rs, jobs.StatusCompleted, "")
	logger.Info("job completed",
		"total", rs.job.TotalRecords, "processed", rs.processed, "failed", rs.failed)
}

// loadRecords resolves the format (sniffing when unset) and loads the
// whole file.
func (p *Pipeline) loadRecords(params Params) ([]*ingest.Record, error) {
	format := params.Format
	if format == "" {
		detected, ok := ingest.Detect(params.FilePath)
		if !ok {
			return nil, semerrors.FormatError(params.FilePath)
		}
		format = detected
	}
	return ingest.LoadRecords(params.FilePath, format)
}

// ensureCollection creates the target collection with the embedder's
// dimension if it does not already exist.
func (p *Pipeline) ensureCollection(ctx context.Context, name string) error {
	exists, err := p.store.CollectionExists(ctx, name)
	if err != nil {
		return semerrors.StoreError("failed to check collection", err)
	}
	if exists {
		return nil
	}
	if err := p.store.CreateCollection(ctx, name, p.embedder.Dimensions()); err != nil {
		return semerrors.StoreError("failed to create collection", err)
	}
	return nil
}

// processRecord turns one record into zero or more documents, or a soft
// failure.
func (p *Pipeline) processRecord(ctx context.Context, params Params, record *ingest.Record, rowNumber int) recordOutcome {
	body := buildBody(record, params.TextFields)
	if body == "" {
		return recordOutcome{reason: emptyBodySample(record, rowNumber)}
	}

	title := ""
	if params.TitleField != "" {
		title = record.StringValue(params.TitleField)
	}

	metadata := buildMetadata(record, params.MetadataFields)

	docIDRaw := ""
	if params.IDField != "" {
		docIDRaw = record.StringValue(params.IDField)
	}
	if docIDRaw == "" {
		docIDRaw = uuid.NewString()
	}

	chunks := chunk.SplitDefault(body)
	docs := make([]*store.Document, 0, len(chunks))
	now := time.Now().UTC()
	for ci, text := range chunks {
		vector, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return recordOutcome{
				reason: fmt.Sprintf("Row %d: embedding failed: %v", rowNumber, err),
			}
		}

		docID := docIDRaw
		chunkTitle := title
		chunkMeta := metadata
		if len(chunks) > 1 {
			docID = fmt.Sprintf("%s_%d", docIDRaw, ci)
		}
		if ci > 0 {
			chunkTitle = fmt.Sprintf("%s (part %d)", title, ci+1)
			chunkMeta = make(map[string]any, len(metadata)+1)
			for k, v := range metadata {
				chunkMeta[k] = v
			}
			chunkMeta["parent_id"] = docIDRaw
		}

		docs = append(docs, &store.Document{
			DocID:      docID,
			Collection: params.CollectionName,
			Title:      chunkTitle,
			Body:       text,
			Metadata:   chunkMeta,
			SourceFile: params.FilePath,
			RowNumber:  rowNumber,
			CreatedAt:  now,
			Embedding:  vector,
		})
	}
	return recordOutcome{docs: docs}
}

// flushBatch bulk-upserts one batch and folds the store's counts into the
// run state. A store-level error counts the whole batch as failed; the
// job continues with the next batch.
func (p *Pipeline) flushBatch(ctx context.Context, collectionName string, batch []*store.Document, rs *runState) {
	success, failures, err := p.store.BulkUpsert(ctx, collectionName, batch)
	if err != nil {
		rs.failed += len(batch)
		rs.noteSample(fmt.Sprintf("bulk upsert failed: %v", err))
		p.logger.Warn("bulk upsert failed, batch counted as failed",
			"batch_size", len(batch), "error", err)
		return
	}
	rs.processed += success
	rs.failed += len(failures)
	for _, f := range failures {
		rs.noteSample(fmt.Sprintf("doc %s: %s", f.DocID, f.Reason))
	}
}

// cancelled reports whether the job has been cancelled out from under
// the run.
func (p *Pipeline) cancelled(ctx context.Context, jobID string) bool {
	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		p.logger.Warn("failed to poll job status", "job_id", jobID, "error", err)
		return false
	}
	return job != nil && job.Status == jobs.StatusCancelled
}

// finalize writes the run's current counters and the given status. When
// sample is empty the first recorded soft-failure sample is kept.
func (p *Pipeline) finalize(ctx context.Context, rs *runState, status jobs.Status, sample string) {
	if sample == "" {
		sample = rs.sample
	}
	rs.job.Status = status
	rs.job.Processed = rs.processed
	rs.job.Failed = rs.failed
	rs.job.ErrorSample = sample
	if err := p.jobs.Upsert(ctx, rs.job); err != nil {
		p.logger.Error("failed to persist job state",
			"job_id", rs.job.JobID, "status", status, "error", err)
	}
}

// buildBody joins the trimmed, non-empty string forms of the configured
// text fields with single spaces, in field order.
func buildBody(record *ingest.Record, textFields []string) string {
	parts := make([]string, 0, len(textFields))
	for _, field := range textFields {
		if s := record.StringValue(field); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// buildMetadata restricts the record to the configured metadata fields,
// dropping absent and null values.
func buildMetadata(record *ingest.Record, metadataFields []string) map[string]any {
	metadata := make(map[string]any, len(metadataFields))
	for _, field := range metadataFields {
		value, ok := record.Get(field)
		if !ok || value == nil {
			continue
		}
		metadata[field] = value
	}
	return metadata
}

// emptyBodySample formats the soft-failure sample for a record with no
// usable text, naming up to five of its keys.
func emptyBodySample(record *ingest.Record, rowNumber int) string {
	keys := record.Keys()
	if len(keys) > maxSampleKeys {
		keys = keys[:maxSampleKeys]
	}
	return fmt.Sprintf("Row %d: no text content (fields: %v)", rowNumber, keys)
}
