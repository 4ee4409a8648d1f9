package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/better-releases/brel/pkg/config"
	"github.com/better-releases/brel/pkg/processor"
)

type updateOptions struct {
	version    string
	configFile string
	dir        string
	dryRun     bool
	verbose    bool
	noColor    bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brel",
		Short: "Release tooling for better releases",
		Long: `brel prepares releases. The update-versions command writes a release
version into the JSON and TOML files listed under release_pr.version_updates.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.AddCommand(newUpdateVersionsCmd())
	return rootCmd
}

func newUpdateVersionsCmd() *cobra.Command {
	opts := &updateOptions{}
	cmd := &cobra.Command{
		Use:   "update-versions",
		Short: "Write a version into every configured file",
		Long: `update-versions sets every string selected by release_pr.version_updates
to the given version. TOML files keep their formatting; JSON files are
rewritten with two-space indentation and sorted keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpdateVersions(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.version, "version", "", "Version to write (required)")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "Config file (defaults to brel.toml, .brel.toml, brel.yaml or brel.yml in --dir)")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", ".", "Repository root")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Dry-run mode: print diffs without writing files")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every step")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func runUpdateVersions(stdout, stderr io.Writer, opts *updateOptions) error {
	version := strings.TrimSpace(opts.version)
	if version == "" {
		return fmt.Errorf("`--version` cannot be empty")
	}

	color.NoColor = opts.noColor || !isTerminal(stdout)
	logger := newLogger(stderr, opts.verbose)

	// 加载配置
	cfg, err := config.Load(opts.configFile, opts.dir)
	if err != nil {
		return err
	}
	for _, warning := range cfg.Warnings {
		logger.Warn(warning, "config", cfg.Source)
	}
	if len(cfg.VersionUpdates) == 0 {
		fmt.Fprintln(stdout, "No version updates configured")
		return nil
	}

	// 应用版本更新
	report, err := processor.ApplyVersionUpdates(opts.dir, version, cfg.VersionUpdates, cfg.FormatOverrides,
		processor.WithLogger(logger), processor.WithDryRun(opts.dryRun))
	if err != nil {
		return err
	}

	if len(report.ChangedFiles) == 0 {
		fmt.Fprintf(stdout, "All configured files already at %s\n", version)
		return nil
	}

	green := color.New(color.FgGreen)
	for _, change := range report.Changes {
		if opts.dryRun {
			// dry-run 只输出差异
			fmt.Fprint(stdout, change.Diff())
			continue
		}
		green.Fprintf(stdout, "✓ Updated: %s\n", change.Path)
	}
	if opts.dryRun {
		fmt.Fprintf(stdout, "Dry run: %s, nothing written\n", report)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
