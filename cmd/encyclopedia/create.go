package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia/pkg/core"
)

var createFile string

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new entry",
	Long: `Create a new entry from --file (or stdin). The stored page starts with a
heading carrying the title. Fails if an entry with the same title exists.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readContent(cmd, createFile)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}

		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		entry, err := svc.CreateEntry(cmd.Context(), args[0], body)
		if errors.Is(err, core.ErrExists) {
			return fmt.Errorf("%w; use 'encyclopedia write' to replace it", err)
		}
		if err != nil {
			return fmt.Errorf("create entry: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Entry %q created (%s.md).\n", entry.Title, entry.Key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringVarP(&createFile, "file", "f", "", "Read content from file instead of stdin")
}
