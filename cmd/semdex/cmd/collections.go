package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCollectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage collections",
	}
	cmd.AddCommand(newCollectionsDeleteCmd())
	return cmd
}

func newCollectionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a collection and all its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			name := args[0]
			exists, err := a.store.CollectionExists(cmd.Context(), name)
			if err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("collection %q does not exist", name)
			}
			if err := a.store.DeleteCollection(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collection %s deleted\n", name)
			return nil
		},
	}
}
