package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aretw0/encyclopedia"
	"github.com/aretw0/encyclopedia/internal/config"
	"github.com/aretw0/encyclopedia/pkg/core"
)

var (
	verbose    bool
	entriesDir string
	versioning bool

	settings config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "encyclopedia",
	Short: "A Markdown encyclopedia served over HTTP",
	Long: `Encyclopedia keeps one Markdown file per entry in a flat directory and
serves them as a small wiki. Every command works on the same directory,
optionally versioned with git.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		settings = cfg
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&entriesDir, "dir", "d", "", "Entries directory (default: $ENCYCLOPEDIA_ENTRIES_DIR, the enclosing entries directory, or ./entries)")
	rootCmd.PersistentFlags().BoolVar(&versioning, "versioning", false, "Commit every change to git (default: detected from .git)")
}

// resetFlags puts every flag of cmd and its subcommands back to its default,
// so the command tree can run more than once in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// resolveDir picks the entries directory: --dir, then the environment, then
// an entries directory enclosing the working directory, then the default.
func resolveDir() string {
	if entriesDir != "" {
		return entriesDir
	}
	if _, ok := os.LookupEnv("ENCYCLOPEDIA_ENTRIES_DIR"); ok {
		return settings.EntriesDir
	}
	if cwd, err := os.Getwd(); err == nil {
		root, err := encyclopedia.FindRoot(cwd)
		if err == nil {
			return root
		}
		if !errors.Is(err, encyclopedia.ErrRootNotFound) {
			slog.Debug("root lookup failed", "error", err)
		}
	}
	return settings.EntriesDir
}

// serviceOptions translates the persistent flags and environment into
// facade options. extra is appended last.
func serviceOptions(cmd *cobra.Command, extra ...encyclopedia.Option) []encyclopedia.Option {
	opts := []encyclopedia.Option{encyclopedia.WithLogger(slog.Default())}
	switch {
	case cmd.Flags().Changed("versioning"):
		opts = append(opts, encyclopedia.WithVersioning(versioning))
	case settings.Versioning:
		opts = append(opts, encyclopedia.WithVersioning(true))
	}
	return append(opts, extra...)
}

// openService opens an existing entries directory.
func openService(cmd *cobra.Command, extra ...encyclopedia.Option) (*core.Service, error) {
	dir := resolveDir()
	opts := serviceOptions(cmd, append([]encyclopedia.Option{encyclopedia.WithMustExist(true)}, extra...)...)
	svc, err := encyclopedia.New(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open entries directory %q: %w", dir, err)
	}
	return svc, nil
}
