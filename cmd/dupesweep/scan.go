package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/config"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/diag"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/engine"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/logging"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/output"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/scanner"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// runScan is the main scan command handler.
func runScan(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args, cfg.DefaultPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := newProgressReporter(os.Stderr, !cliOpts.quiet && !cliOpts.verbose)
	return scanAndReport(ctx, root, cfg, cliOpts, progress, os.Stdout)
}

// resolveRoot picks the scan root from the argument or the configured
// default and checks that it is a directory.
func resolveRoot(args []string, defaultPath string) (string, error) {
	scanPath := config.DefaultPath
	if len(args) > 0 {
		scanPath = args[0]
	} else if defaultPath != "" {
		scanPath = defaultPath
	}

	expandedPath, err := config.ExpandPath(scanPath)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expandedPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}
	return absPath, nil
}

// selectFormatter returns the formatter named by the configuration.
func selectFormatter(name, tmpl string) (output.Formatter, error) {
	if name == "" {
		name = config.DefaultOutput
	}
	if name == "template" {
		if tmpl == "" {
			return nil, errors.New("--template is required when using -o template")
		}
		f := output.NewTemplateFormatter(tmpl)
		if err := f.Compile(); err != nil {
			return nil, fmt.Errorf("invalid --template: %w", err)
		}
		return f, nil
	}
	formatter, err := output.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown output format %q: available formats are %v", name, output.Available())
	}
	return formatter, nil
}

// scanAndReport walks root, classifies the files and writes the report to w.
// When ctx is cancelled the partial report is still written and
// errInterrupted is returned.
func scanAndReport(ctx context.Context, root string, c *config.Config, o cliOptions, progress *progressReporter, w io.Writer) error {
	formatter, err := selectFormatter(c.Output, o.template)
	if err != nil {
		return err
	}
	minSize, err := c.MinSizeBytes()
	if err != nil {
		return err
	}
	mmapThreshold, err := c.MmapThresholdBytes()
	if err != nil {
		return err
	}

	d := diag.New(diag.Options{})

	s, err := scanner.New(scanner.Options{
		Root:           root,
		MinSize:        minSize,
		Exclude:        c.Exclude,
		Include:        o.include,
		Extensions:     o.extensions,
		FollowSymlinks: c.FollowSymlinks,
		Workers:        c.Workers,
		Diagnostics:    d,
		OnProgress:     progress.scan,
	})
	if err != nil {
		return fmt.Errorf("invalid scan options: %w", err)
	}

	printVerbose("Scanning %s (min size %s, algorithm %s)", root, types.FormatSize(minSize), c.Algorithm)

	scanRes, err := s.Scan(ctx)
	if err != nil && (ctx.Err() == nil || scanRes == nil) {
		progress.finish()
		return fmt.Errorf("scan failed: %w", err)
	}

	var run *types.Result
	if o.fast {
		run = metadataResult(root, scanRes.Files, d)
		run.Partial = ctx.Err() != nil
	} else {
		eng, err := engine.New(engine.Options{
			Root:              root,
			ManualWorkers:     c.Workers,
			Adaptive:          c.Adaptive,
			Streaming:         c.Streaming,
			BatchSize:         c.BatchSize,
			CacheSize:         c.CacheSize,
			Algorithm:         c.Algorithm,
			MmapThreshold:     mmapThreshold,
			NoFolders:         !c.Folders,
			KeepNestedFolders: c.KeepNestedFolders,
			Diagnostics:       d,
			Progress:          progress.hash,
		})
		if err != nil {
			progress.finish()
			return err
		}
		// A cancelled context still yields the classification of files
		// that needed no hashing.
		run, err = eng.Run(ctx, scanRes.Files)
		if err != nil && ctx.Err() == nil {
			progress.finish()
			return fmt.Errorf("dedup failed: %w", err)
		}
	}
	progress.finish()

	res := output.NewResult(run, output.ScanStats{
		DirsScanned:  scanRes.DirsScanned,
		FilesScanned: scanRes.FilesScanned,
		Duration:     scanRes.Elapsed,
	})
	res.Fast = o.fast
	res.Interrupted = run.Partial || ctx.Err() != nil
	res.Warnings = collectWarnings(d, o.verbose)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, res); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}

	if res.Interrupted {
		printInfo("Interrupted: the report above is partial")
		return errInterrupted
	}
	return nil
}

// metadataResult builds a report from name, size and modification time
// matches alone. Nothing is read, so no digest or folder results exist.
func metadataResult(root string, files []types.FileRecord, d *diag.Diagnostics) *types.Result {
	start := time.Now()
	groups, unique := engine.FindMetadataDuplicates(files)

	res := &types.Result{
		RunID:       uuid.NewString(),
		Root:        root,
		Metadata:    groups,
		Unique:      unique,
		Diagnostics: d.Snapshot(),
	}
	res.Stats.TotalFiles = len(files)
	for _, f := range files {
		res.Stats.TotalBytes += f.Size
	}
	res.Stats.UniqueFiles = len(unique)
	for _, g := range groups {
		res.Stats.DuplicateGroups++
		res.Stats.DuplicateFiles += len(g.Files)
		res.Stats.DuplicateBytes += int64(len(g.Files)) * g.Size
		res.Stats.WastedBytes += int64(len(g.Files)-1) * g.Size
	}
	res.Stats.Elapsed = time.Since(start)

	logging.Get("engine").Info("metadata matching complete",
		"run_id", res.RunID,
		"files", res.Stats.TotalFiles,
		"groups", res.Stats.DuplicateGroups)
	return res
}

// collectWarnings returns the detailed diagnostics messages and, in verbose
// mode, recent warnings logged by other components.
func collectWarnings(d *diag.Diagnostics, verbose bool) []string {
	var warnings []string
	for _, m := range d.Messages() {
		warnings = append(warnings, m.String())
	}
	if !verbose {
		return warnings
	}
	for _, e := range logging.RecentWarnings() {
		if e.Component == "diag" {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("[%s] %s", e.Component, e.Message))
	}
	return warnings
}
