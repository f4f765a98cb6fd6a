package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var randomRead bool

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Print a random entry title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}

		title, err := svc.RandomTitle(cmd.Context())
		if err != nil {
			return fmt.Errorf("pick an entry: %w", err)
		}
		if !randomRead {
			fmt.Fprintln(cmd.OutOrStdout(), title)
			return nil
		}

		entry, err := svc.GetEntry(cmd.Context(), title)
		if err != nil {
			return fmt.Errorf("read entry: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), entry.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(randomCmd)
	randomCmd.Flags().BoolVar(&randomRead, "read", false, "Print the entry content instead of its title")
}
