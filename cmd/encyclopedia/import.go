package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia/internal/importer"
	"github.com/aretw0/encyclopedia/pkg/core"
)

var (
	importTitle  string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import <url-or-file>",
	Short: "Create an entry from an HTML page",
	Long: `Fetch an HTML page (http/https URL or local file), keep its main content,
convert it to Markdown and store it as a new entry. The title comes from the
first <h1>, then <title>, unless --title is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imp := importer.New(importer.WithLogger(slog.Default()))

		page, err := imp.Load(cmd.Context(), args[0])
		if err != nil && !(importTitle != "" && errors.Is(err, importer.ErrNoTitle)) {
			return fmt.Errorf("import page: %w", err)
		}
		if importTitle != "" {
			page.Title = importTitle
		}

		out := cmd.OutOrStdout()
		if importDryRun {
			fmt.Fprintf(out, "# %s\n%s", page.Title, page.Body)
			return nil
		}

		svc, err := openService(cmd)
		if err != nil {
			return err
		}
		ctx := core.WithChangeReason(cmd.Context(),
			core.FormatChangeReason(core.ChangeTypeDocs, "entries", "import "+page.Title, "Source: "+page.Source))
		entry, err := svc.CreateEntry(ctx, page.Title, page.Body)
		if err != nil {
			return fmt.Errorf("create entry: %w", err)
		}

		fmt.Fprintf(out, "Imported %q from %s.\n", entry.Title, page.Source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importTitle, "title", "", "Entry title (overrides the page title)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Print the converted entry without storing it")
}
