package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every entry title",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}

		entries, err := svc.ListEntries(cmd.Context())
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			type item struct {
				Title string `json:"title"`
				Key   string `json:"key"`
			}
			items := make([]item, 0, len(entries))
			for _, e := range entries {
				items = append(items, item{Title: e.Title, Key: e.Key})
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(items)
		}

		for _, e := range entries {
			fmt.Fprintln(out, e.Title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
