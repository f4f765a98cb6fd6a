package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an entries directory",
	Long: `Create the entries directory and its system directory. With --versioning
it also runs 'git init' and records an initial commit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveDir()
		opts := serviceOptions(cmd, encyclopedia.WithAutoInit(true))
		if _, err := encyclopedia.Init(dir, opts...); err != nil {
			return fmt.Errorf("initialize entries directory: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized encyclopedia in", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
