package client

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
)

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>...",
		Short: "Delete documents and their indexed chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDelete(api, args, cmd.OutOrStdout())
		},
	}
}

// runDelete deletes each key in turn, continuing past failures.
func runDelete(api *APIClient, keys []string, out io.Writer) error {
	failed := 0
	for _, key := range keys {
		if _, err := api.Delete("/documents/" + url.PathEscape(key)); err != nil {
			fmt.Fprintf(out, "%s: failed: %v\n", key, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Deleted %s\n", key)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deletions failed", failed, len(keys))
	}
	return nil
}
