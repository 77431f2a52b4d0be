package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/ingest"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect a file's record format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, ok := ingest.Detect(args[0])
			if !ok {
				return fmt.Errorf("no supported format detected for %s", args[0])
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), format)
			return err
		},
	}
}

// previewPayload is the JSON shape of the preview command.
type previewPayload struct {
	Format              string           `json:"format"`
	Columns             []string         `json:"columns"`
	RecordCount         int              `json:"record_count_estimate"`
	SuggestedIDField    string           `json:"suggested_id_field,omitempty"`
	SuggestedTextFields []string         `json:"suggested_text_fields,omitempty"`
	Rows                []map[string]any `json:"rows"`
}

func newPreviewCmd() *cobra.Command {
	var maxRows int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Preview a file's records and field suggestions",
		Long: `Detect the file's format, load a sample of records, and suggest
which fields look like identifiers and text content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ingest.PreviewFile(args[0], maxRows)
			if err != nil {
				return err
			}

			rows := make([]map[string]any, 0, len(p.Records))
			for _, rec := range p.Records {
				row := make(map[string]any, rec.Len())
				for _, key := range rec.Keys() {
					value, _ := rec.Get(key)
					row[key] = value
				}
				rows = append(rows, row)
			}

			payload := previewPayload{
				Format:              string(p.Format),
				Columns:             p.Columns,
				RecordCount:         ingest.QuickCount(args[0], p.Format),
				SuggestedIDField:    p.SuggestedIDField,
				SuggestedTextFields: p.SuggestedTextFields,
				Rows:                rows,
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		},
	}

	cmd.Flags().IntVar(&maxRows, "rows", ingest.DefaultPreviewRows,
		"Maximum preview rows")

	return cmd
}
