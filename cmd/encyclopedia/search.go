package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia/pkg/core"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entry titles",
	Long: `Search entry titles ignoring case. An exact match is printed first and
marked with '=', followed by every title containing the query.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}

		res, err := svc.Search(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if res.Exact == "" && len(res.Matches) == 0 {
			return fmt.Errorf("%w: no entries match %q", core.ErrNotFound, res.Query)
		}

		out := cmd.OutOrStdout()
		if res.Exact != "" {
			fmt.Fprintln(out, "=", res.Exact)
		}
		for _, title := range res.Matches {
			if title == res.Exact {
				continue
			}
			fmt.Fprintln(out, " ", title)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
