package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the entries directory with its remote",
	Long: `Pull remote changes into a versioned entries directory and push local
commits to 'origin'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveDir()
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Syncing...")
		if err := encyclopedia.Sync(dir,
			encyclopedia.WithVersioning(true),
			encyclopedia.WithLogger(slog.Default()),
		); err != nil {
			stderr := cmd.ErrOrStderr()
			fmt.Fprintln(stderr, "Tip: Ensure you have a remote configured ('git remote add origin <url>') and you are online.")
			fmt.Fprintln(stderr, "If there are merge conflicts, you may need to resolve them manually in the repository.")
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Fprintln(out, "Sync completed successfully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
