package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/jobs"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and cancel indexing jobs",
	}
	cmd.AddCommand(newJobsListCmd())
	cmd.AddCommand(newJobsStatusCmd())
	cmd.AddCommand(newJobsCancelCmd())
	return cmd
}

func newJobsListCmd() *cobra.Command {
	var (
		limit      int
		activeOnly bool
		collection string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			var rows []*jobs.Job
			switch {
			case collection != "":
				rows, err = a.jobs.ListForCollection(ctx, collection)
			case activeOnly:
				rows, err = a.jobs.ListActive(ctx)
			default:
				rows, err = a.jobs.ListRecent(ctx, limit)
			}
			if err != nil {
				return err
			}

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no jobs")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "JOB\tCOLLECTION\tSTATUS\tPROCESSED\tFAILED\tUPDATED")
			for _, job := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
					job.JobID, job.CollectionName, job.Status,
					job.Processed, job.TotalRecords, job.Failed,
					job.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum jobs to list")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only queued and processing jobs")
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "Only jobs for this collection")

	return cmd
}

func newJobsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show one job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := a.jobs.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("no job with id %s", args[0])
			}
			printJob(cmd, job)
			return nil
		},
	}
}

func newJobsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a queued or processing job",
		Long: `Request cancellation of a job. A running job observes the request
at its next batch boundary, so up to one batch of records may still be
processed; already-indexed documents are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ok, err := a.jobs.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %s is not active (already finished or unknown)", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s cancelled\n", args[0])
			return nil
		},
	}
}
