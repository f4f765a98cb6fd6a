package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia/pkg/core"
)

var (
	writeFile    string
	changeReason string
	writeType    string
	writeScope   string
)

// readContent returns the --file contents, or the command's stdin when no
// file is given.
func readContent(cmd *cobra.Command, path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		return string(data), err
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	return string(data), err
}

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write <title>",
	Short: "Create or overwrite an entry",
	Long: `Store the content read from --file (or stdin) under the given title,
replacing any existing entry with the same title.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]
		if writeType != "" && !core.IsChangeType(writeType) {
			return fmt.Errorf("unknown change type %q", writeType)
		}

		content, err := readContent(cmd, writeFile)
		if err != nil {
			return fmt.Errorf("read content: %w", err)
		}

		svc, err := openService(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		switch {
		case writeType != "":
			subject := changeReason
			if subject == "" {
				subject = "update " + title
			}
			ctx = core.WithChangeReason(ctx, core.FormatChangeReason(writeType, writeScope, subject, ""))
		case changeReason != "":
			ctx = core.WithChangeReason(ctx, core.AppendFooter(changeReason))
		}

		if _, err := svc.GetEntry(ctx, title); err == nil {
			if _, err := svc.EditEntry(ctx, title, title, content); err != nil {
				return fmt.Errorf("save entry: %w", err)
			}
		} else if err := svc.SaveEntry(ctx, title, content); err != nil {
			return fmt.Errorf("save entry: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Entry %q saved.\n", title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "Read content from file instead of stdin")
	writeCmd.Flags().StringVarP(&changeReason, "message", "m", "", "Change reason (commit message)")
	writeCmd.Flags().StringVarP(&writeType, "type", "t", "", "Change type: feat, fix, docs, refactor or chore")
	writeCmd.Flags().StringVarP(&writeScope, "scope", "s", "entries", "Commit scope")
}
