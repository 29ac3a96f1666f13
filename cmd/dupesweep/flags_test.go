package main

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/config"
)

func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, cliOptions) {
	t.Helper()
	var o cliOptions
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerFlags(fs, &o)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return fs, o
}

func baseConfig() *config.Config {
	return &config.Config{
		CacheSize: config.DefaultCacheSize,
		Algorithm: config.DefaultAlgorithm,
		MinSize:   "10",
		Exclude:   []string{"/proc"},
		Folders:   true,
		Output:    config.DefaultOutput,
	}
}

func TestApplyFlags_UnsetFlagsKeepConfig(t *testing.T) {
	fs, _ := parseFlags(t)
	c := baseConfig()
	c.Algorithm = "xxhash"

	if err := applyFlags(c, fs); err != nil {
		t.Fatalf("applyFlags() error = %v", err)
	}
	if c.Algorithm != "xxhash" {
		t.Errorf("Algorithm = %q, want config value xxhash", c.Algorithm)
	}
	if c.MinSize != "10" {
		t.Errorf("MinSize = %q, want 10", c.MinSize)
	}
	if !c.Folders {
		t.Error("Folders should stay enabled")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c *config.Config)
	}{
		{
			name: "workers short flag",
			args: []string{"-w", "3"},
			check: func(t *testing.T, c *config.Config) {
				if c.Workers != 3 {
					t.Errorf("Workers = %d, want 3", c.Workers)
				}
			},
		},
		{
			name: "engine switches",
			args: []string{"--adaptive", "--streaming", "--batch-size", "64", "--cache-size", "5", "--algorithm", "sha1"},
			check: func(t *testing.T, c *config.Config) {
				if !c.Adaptive || !c.Streaming {
					t.Errorf("Adaptive=%t Streaming=%t, want both true", c.Adaptive, c.Streaming)
				}
				if c.BatchSize != 64 || c.CacheSize != 5 {
					t.Errorf("BatchSize=%d CacheSize=%d, want 64 and 5", c.BatchSize, c.CacheSize)
				}
				if c.Algorithm != "sha1" {
					t.Errorf("Algorithm = %q, want sha1", c.Algorithm)
				}
			},
		},
		{
			name: "no folders",
			args: []string{"--no-folders", "--keep-nested"},
			check: func(t *testing.T, c *config.Config) {
				if c.Folders {
					t.Error("Folders should be disabled")
				}
				if !c.KeepNestedFolders {
					t.Error("KeepNestedFolders should be enabled")
				}
			},
		},
		{
			name: "exclusions are appended",
			args: []string{"-e", "node_modules", "-e", "*.tmp"},
			check: func(t *testing.T, c *config.Config) {
				want := []string{"/proc", "node_modules", "*.tmp"}
				if len(c.Exclude) != len(want) {
					t.Fatalf("Exclude = %v, want %v", c.Exclude, want)
				}
				for i := range want {
					if c.Exclude[i] != want[i] {
						t.Errorf("Exclude[%d] = %q, want %q", i, c.Exclude[i], want[i])
					}
				}
			},
		},
		{
			name: "scanner and output",
			args: []string{"-s", "1M", "--follow-symlinks", "-o", "json"},
			check: func(t *testing.T, c *config.Config) {
				if c.MinSize != "1M" {
					t.Errorf("MinSize = %q, want 1M", c.MinSize)
				}
				if !c.FollowSymlinks {
					t.Error("FollowSymlinks should be enabled")
				}
				if c.Output != "json" {
					t.Errorf("Output = %q, want json", c.Output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := parseFlags(t, tt.args...)
			c := baseConfig()
			if err := applyFlags(c, fs); err != nil {
				t.Fatalf("applyFlags() error = %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestRegisterFlags_BindsInvocationOptions(t *testing.T) {
	_, o := parseFlags(t, "--fast", "-q", "--include", "*.jpg", "--ext", "png,gif", "--template", "{{.RunID}}")

	if !o.fast || !o.quiet {
		t.Errorf("fast=%t quiet=%t, want both true", o.fast, o.quiet)
	}
	if len(o.include) != 1 || o.include[0] != "*.jpg" {
		t.Errorf("include = %v, want [*.jpg]", o.include)
	}
	if len(o.extensions) != 2 || o.extensions[1] != "gif" {
		t.Errorf("extensions = %v, want [png gif]", o.extensions)
	}
	if o.template != "{{.RunID}}" {
		t.Errorf("template = %q", o.template)
	}
}

func TestRootHelp_ExamplesDoNotRemoveFiles(t *testing.T) {
	if strings.Contains(rootCmd.Long, "xargs rm") {
		t.Errorf("root help suggests removing files:\n%s", rootCmd.Long)
	}
	if !strings.Contains(rootCmd.Long, "-o paths . | xargs ls") {
		t.Errorf("root help missing the paths example:\n%s", rootCmd.Long)
	}
}
