package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia/internal/markdown"
)

var (
	readJSON bool
	readHTML bool
)

var readCmd = &cobra.Command{
	Use:   "read <title>",
	Short: "Print an entry",
	Long:  `Print the Markdown source of an entry. --html renders it, --json prints the whole entry.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd)
		if err != nil {
			return err
		}

		entry, err := svc.GetEntry(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("read entry: %w", err)
		}

		out := cmd.OutOrStdout()
		switch {
		case readJSON:
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(entry)
		case readHTML:
			renderer, err := markdown.New(markdown.Options{
				Extensions: settings.MarkdownExtensions,
				HardWraps:  settings.MarkdownHardWraps,
				Unsafe:     settings.UnsafeHTML,
			})
			if err != nil {
				return fmt.Errorf("invalid markdown settings: %w", err)
			}
			html, err := renderer.Render(entry.Content)
			if err != nil {
				return err
			}
			_, err = out.Write(html)
			return err
		default:
			fmt.Fprint(out, entry.Content)
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
	readCmd.Flags().BoolVar(&readHTML, "html", false, "Render the entry to HTML")
}
