package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/hasher"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/tuner"
)

var profileCmd = &cobra.Command{
	Use:   "profile [path]",
	Short: "Show detected resources and the resulting worker policy",
	Long: `Probe CPU count, memory and the storage medium behind path, and print
the worker counts and batch size a scan of path would use.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

// runProfile prints the system profile for the scan root.
func runProfile(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args, cfg.DefaultPath)
	if err != nil {
		return err
	}

	p, warnings := tuner.ProfileSystem(cmd.Context(), tuner.Options{Path: root})
	for _, w := range warnings {
		printInfo("Warning: %v", w)
	}
	p = p.WithOverride(cfg.Workers)

	writeProfile(cmd.OutOrStdout(), root, p, cfg.Adaptive && p.Override == 0)
	return nil
}

func writeProfile(w io.Writer, root string, p tuner.Profile, adaptive bool) {
	fmt.Fprintf(w, "Path:         %s\n", root)
	fmt.Fprintf(w, "CPUs:         %d\n", p.CPUCount)
	fmt.Fprintf(w, "Memory:       %s\n", humanize.IBytes(uint64(p.MemoryBytes)))
	fmt.Fprintf(w, "Medium:       %s\n", p.Medium)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "I/O workers:  %d\n", p.IOWorkers)
	fmt.Fprintf(w, "CPU workers:  %d\n", p.CPUWorkers)
	fmt.Fprintf(w, "Batch size:   %d\n", p.BatchSize)
	if p.Override > 0 {
		fmt.Fprintf(w, "Override:     %d workers\n", p.Override)
	}
	fmt.Fprintf(w, "Adaptive:     %t\n", adaptive)
	fmt.Fprintf(w, "Algorithms:   %s\n", strings.Join(hasher.Algorithms(), ", "))
}
