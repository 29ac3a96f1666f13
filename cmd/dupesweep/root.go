package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/config"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
)

// errInterrupted is returned by commands stopped by a signal after they have
// printed whatever they had.
var errInterrupted = errors.New("interrupted")

var (
	cfgFile string

	// cfg is loaded once per invocation by initializeLogging, with flags applied.
	cfg = &config.Config{}

	cliOpts cliOptions

	rootCmd = &cobra.Command{
		Use:   "dupesweep [path]",
		Short: "Find duplicate files and folders",
		Long: `Dupesweep finds files and folders with identical content.

Files are compared by size first, then by a digest of their first 4 KiB, and
only then by a digest of their full content, so most files are never read in
full. Folders whose files and structure match are reported as a whole.

Examples:
  dupesweep                        # Scan the current directory
  dupesweep ~/Pictures             # Scan a specific directory
  dupesweep -s 1M -e node_modules  # Skip small files and node_modules
  dupesweep -o json . > dupes.json # Machine readable report
  dupesweep -o paths . | xargs ls  # List redundant copies
  dupesweep --fast ~/Downloads     # Match by name, size and time only
  dupesweep profile                # Show detected resources`,
		Args:              cobra.MaximumNArgs(1),
		RunE:              runScan,
		PersistentPreRunE: initializeLogging,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dupesweep/config.yaml)")
	registerFlags(rootCmd.PersistentFlags(), &cliOpts)
}

// registerFlags defines the scan flags. Flags with a config key are read
// back by applyFlags; the rest are bound to o.
func registerFlags(flags *pflag.FlagSet, o *cliOptions) {
	// Engine
	flags.IntP("workers", "w", 0, "fix worker count for every stage (0=auto)")
	flags.Bool("adaptive", false, "adjust workers from observed hashing latency")
	flags.Bool("streaming", false, "hash in batches and reuse prefix digests")
	flags.Int("batch-size", 0, "streaming batch size (0=auto)")
	flags.Int("cache-size", config.DefaultCacheSize, "prefix digest cache capacity")
	flags.String("algorithm", config.DefaultAlgorithm, "content hash: sha256, sha1, sha512 or xxhash")
	flags.Bool("no-folders", false, "skip duplicate folder detection")
	flags.Bool("keep-nested", false, "also report duplicate folders inside reported ones")
	flags.BoolVar(&o.fast, "fast", false, "match by name, size and modification time without hashing")

	// Scanner
	flags.StringP("min-size", "s", "", "minimum file size (e.g., 1K, 10M)")
	flags.StringSliceP("exclude", "e", nil, "exclude paths or glob patterns (repeatable)")
	flags.StringSliceVar(&o.include, "include", nil, "only include files matching these glob patterns")
	flags.StringSliceVar(&o.extensions, "ext", nil, "only include these extensions (e.g., jpg,png)")
	flags.Bool("follow-symlinks", false, "follow symbolic links to files and directories")

	// Output
	flags.StringP("output", "o", "", "report format: pretty, plain, json, yaml, jsonl, tsv, csv, markdown, paths, null, template")
	flags.StringVar(&o.template, "template", "", "Go template for -o template")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "no progress or status messages")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "debug output on stderr")
}

// initializeLogging loads configuration, applies flags and starts logging.
func initializeLogging(cmd *cobra.Command, _ []string) error {
	loaded, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}
	if err := applyFlags(loaded, cmd.Flags()); err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	if err := config.EnsureStateDir(); err != nil {
		return err
	}
	logCfg, err := cfg.LoggingConfig()
	if err != nil {
		return err
	}
	if cliOpts.verbose {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()

	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errInterrupted) {
		printError("%v", err)
	}
	return err
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if cliOpts.verbose && !cliOpts.quiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a status message unless quiet mode is enabled. Status
// goes to stderr so reports on stdout stay machine readable.
func printInfo(format string, args ...any) {
	if !cliOpts.quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, "Error: "+strings.TrimSpace(msg))
}
