package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <title>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		if err := svc.DeleteEntry(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Entry %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
