package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage dupesweep configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/dupesweep/config.yaml (if set)
  2. ~/.config/dupesweep/config.yaml

Environment variables can override config file settings using the DUPESWEEP_ prefix:
  DUPESWEEP_MIN_SIZE=1M
  DUPESWEEP_ALGORITHM=xxhash
  DUPESWEEP_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after file, environment and flags.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the effective configuration.
func runConfigShow(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if cfgFile != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", cfgFile)
	} else if path, err := config.ConfigPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Fprintf(out, "Config file: %s\n\n", path)
		} else {
			fmt.Fprintln(out, "Config file: (using defaults, no file found)")
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	writeConfig(out, cfg)

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	overrides := envOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	for _, kv := range overrides {
		fmt.Fprintln(out, kv)
	}

	return nil
}

func writeConfig(w io.Writer, c *config.Config) {
	fmt.Fprintf(w, "workers:              %d\n", c.Workers)
	fmt.Fprintf(w, "adaptive:             %t\n", c.Adaptive)
	fmt.Fprintf(w, "streaming:            %t\n", c.Streaming)
	fmt.Fprintf(w, "batch_size:           %d\n", c.BatchSize)
	fmt.Fprintf(w, "cache_size:           %d\n", c.CacheSize)
	fmt.Fprintf(w, "algorithm:            %s\n", c.Algorithm)
	fmt.Fprintf(w, "mmap_threshold:       %s\n", c.MmapThreshold)
	fmt.Fprintf(w, "min_size:             %s\n", c.MinSize)
	fmt.Fprintf(w, "default_path:         %s\n", c.DefaultPath)
	fmt.Fprintf(w, "exclude:              %v\n", c.Exclude)
	fmt.Fprintf(w, "follow_symlinks:      %t\n", c.FollowSymlinks)
	fmt.Fprintf(w, "folders:              %t\n", c.Folders)
	fmt.Fprintf(w, "keep_nested_folders:  %t\n", c.KeepNestedFolders)
	fmt.Fprintf(w, "output:               %s\n", c.Output)
	fmt.Fprintf(w, "logging.level:        %s\n", c.Logging.Level)
	fmt.Fprintf(w, "logging.path:         %s\n", c.Logging.Path)
	fmt.Fprintf(w, "logging.rotation:     %s, %d backups\n", c.Logging.Rotation.MaxSize, c.Logging.Rotation.MaxBackups)

	components := make([]string, 0, len(c.Logging.Components))
	for name, level := range c.Logging.Components {
		components = append(components, name+"="+level)
	}
	sort.Strings(components)
	fmt.Fprintf(w, "logging.components:   %s\n", strings.Join(components, " "))
}

// envOverrides returns the DUPESWEEP_ variables from environ, sorted.
func envOverrides(environ []string) []string {
	var out []string
	for _, kv := range environ {
		if strings.HasPrefix(kv, "DUPESWEEP_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	configPath, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}

	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'dupesweep config edit' to modify it.")
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, _ []string) error {
	configPath, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
