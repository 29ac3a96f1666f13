package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/config"
)

// cliOptions holds flags that only affect this invocation and have no
// config file key.
type cliOptions struct {
	include    []string
	extensions []string
	template   string
	quiet      bool
	verbose    bool
	fast       bool
}

// applyFlags overrides config values with the flags set on the command line.
// Flags left at their defaults do not touch the loaded configuration.
func applyFlags(c *config.Config, flags *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !flags.Changed(name) {
			return
		}
		if aerr := apply(); aerr != nil {
			err = fmt.Errorf("invalid --%s: %w", name, aerr)
		}
	}

	set("workers", func() (e error) { c.Workers, e = flags.GetInt("workers"); return })
	set("adaptive", func() (e error) { c.Adaptive, e = flags.GetBool("adaptive"); return })
	set("streaming", func() (e error) { c.Streaming, e = flags.GetBool("streaming"); return })
	set("batch-size", func() (e error) { c.BatchSize, e = flags.GetInt("batch-size"); return })
	set("cache-size", func() (e error) { c.CacheSize, e = flags.GetInt("cache-size"); return })
	set("algorithm", func() (e error) { c.Algorithm, e = flags.GetString("algorithm"); return })
	set("min-size", func() (e error) { c.MinSize, e = flags.GetString("min-size"); return })
	set("follow-symlinks", func() (e error) { c.FollowSymlinks, e = flags.GetBool("follow-symlinks"); return })
	set("keep-nested", func() (e error) { c.KeepNestedFolders, e = flags.GetBool("keep-nested"); return })
	set("output", func() (e error) { c.Output, e = flags.GetString("output"); return })

	set("no-folders", func() error {
		off, e := flags.GetBool("no-folders")
		c.Folders = !off
		return e
	})

	// Command line exclusions add to the configured ones.
	set("exclude", func() error {
		extra, e := flags.GetStringSlice("exclude")
		c.Exclude = append(c.Exclude, extra...)
		return e
	})

	return err
}
