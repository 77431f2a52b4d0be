package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/ingest"
	"github.com/Aman-CERP/semdex/internal/jobs"
	"github.com/Aman-CERP/semdex/internal/pipeline"
)

func newIndexCmd() *cobra.Command {
	var (
		collection     string
		textFields     []string
		titleField     string
		idField        string
		metadataFields []string
		formatName     string
	)

	cmd := &cobra.Command{
		Use:   "index <file>",
		Short: "Index a file into a collection",
		Long: `Load a record file, chunk and embed its text fields, and index the
documents into a collection. Progress is tracked as a job; the command
waits for the job to finish and reports its outcome.`,
		Example: `  # Suggested fields come from 'semdex preview'
  semdex index products.csv --collection products \
      --text-fields description --title-field name --id-field id`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath := args[0]
			if len(textFields) == 0 {
				return fmt.Errorf("at least one --text-fields value is required")
			}

			var format ingest.Format
			if formatName != "" {
				parsed, ok := ingest.ParseFormat(formatName)
				if !ok {
					return fmt.Errorf("unknown format %q", formatName)
				}
				format = parsed
			} else {
				detected, ok := ingest.Detect(filePath)
				if !ok {
					return fmt.Errorf("no supported format detected for %s", filePath)
				}
				format = detected
			}

			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			// Stage the input through the upload registry when one is
			// configured: the job then reads a stable copy, and oversized
			// files are rejected up front.
			var uploadID string
			if a.uploads != nil {
				f, err := os.Open(filePath)
				if err != nil {
					return err
				}
				uploadID, err = a.uploads.Save(f, filepath.Base(filePath))
				f.Close()
				if err != nil {
					return err
				}
				defer a.uploads.Remove(uploadID)
				if filePath, err = a.uploads.Path(uploadID); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			jobID := uuid.NewString()
			job := &jobs.Job{
				JobID:          jobID,
				CollectionName: collection,
				Status:         jobs.StatusQueued,
				TotalRecords:   ingest.QuickCount(filePath, format),
			}
			if err := a.jobs.Upsert(ctx, job); err != nil {
				return err
			}

			// Submit through the configured dispatcher, then wait: the
			// CLI always blocks on its own job.
			done := make(chan struct{})
			a.dispatcher.Submit(func() {
				defer close(done)
				a.pipeline.Run(ctx, pipeline.Params{
					JobID:          jobID,
					CollectionName: collection,
					UploadID:       uploadID,
					FilePath:       filePath,
					Format:         format,
					TextFields:     textFields,
					TitleField:     titleField,
					IDField:        idField,
					MetadataFields: metadataFields,
				})
			})
			<-done

			final, err := a.jobs.Get(ctx, jobID)
			if err != nil {
				return err
			}
			printJob(cmd, final)
			if final.Status != jobs.StatusCompleted {
				return fmt.Errorf("job %s finished with status %s", jobID, final.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Target collection name")
	cmd.Flags().StringSliceVar(&textFields, "text-fields", nil,
		"Record fields concatenated into the document body")
	cmd.Flags().StringVar(&titleField, "title-field", "", "Record field used as document title")
	cmd.Flags().StringVar(&idField, "id-field", "", "Record field used as document id (random when empty)")
	cmd.Flags().StringSliceVar(&metadataFields, "metadata-fields", nil,
		"Record fields carried as filterable metadata")
	cmd.Flags().StringVar(&formatName, "format", "", "Input format (csv, tsv, json, jsonl); sniffed when empty")
	_ = cmd.MarkFlagRequired("collection")

	return cmd
}

func printJob(cmd *cobra.Command, job *jobs.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job:        %s\n", job.JobID)
	fmt.Fprintf(out, "collection: %s\n", job.CollectionName)
	fmt.Fprintf(out, "status:     %s\n", job.Status)
	fmt.Fprintf(out, "records:    %d total, %d processed, %d failed\n",
		job.TotalRecords, job.Processed, job.Failed)
	if job.ErrorSample != "" {
		fmt.Fprintf(out, "last error: %s\n", job.ErrorSample)
	}
}
