package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia/pkg/core"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <title>",
	Short: "Show the revisions of an entry",
	Long: `List the commits that touched an entry, newest first. Needs a versioned
entries directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}

		revisions, err := svc.History(cmd.Context(), args[0], historyLimit)
		if errors.Is(err, core.ErrUnsupported) {
			return fmt.Errorf("%q is not versioned, run 'encyclopedia init --versioning' first", resolveDir())
		}
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, rev := range revisions {
			fmt.Fprintf(out, "%s  %s  %s\n", rev.ID, rev.Time.Format("2006-01-02 15:04"), rev.Subject)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of revisions")
}
