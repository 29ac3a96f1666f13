package output

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

func TestPrettyFormatter_Format_BasicOutput(t *testing.T) {
	output := format(t, "pretty", sampleResult())

	assert.Contains(t, output, "/d")
	assert.Contains(t, output, "13 files in 1.0s")
	assert.Contains(t, output, "8 io / 4 cpu")

	assert.Contains(t, output, "Duplicate folders")
	assert.Contains(t, output, "FOLDER GROUP 1: 2 identical folders (2 files, 100 B each)")
	assert.Contains(t, output, "GROUP 1: 3 identical files (1.0 KiB each)")
	assert.Contains(t, output, "aaaaaaaaaaaaaaaa...")
	assert.Contains(t, output, "/d/c")
	assert.Contains(t, output, "2.0 KiB")

	assert.Contains(t, output, "Unique files")
	assert.Contains(t, output, "/d/u2")
	assert.Contains(t, output, "Skipped 1 files")
	assert.Contains(t, output, "permission_denied: 1")
	assert.NotContains(t, output, "No duplicates found")
}

func TestPrettyFormatter_Format_EmptyResult(t *testing.T) {
	output := format(t, "pretty", NewResult(&types.Result{Root: "/empty"}, ScanStats{}))

	assert.Contains(t, output, "No duplicates found")
	assert.Contains(t, output, "Unique files 0")
	assert.NotContains(t, output, "Warnings:")
}

func TestPrettyFormatter_Format_Interrupted(t *testing.T) {
	r := NewResult(&types.Result{Root: "/d", Partial: true, Stats: types.Stats{PendingFiles: 4}}, ScanStats{})

	output := format(t, "pretty", r)

	assert.Contains(t, output, "Run interrupted: results are partial (4 files not compared)")
}

func TestPrettyFormatter_Format_SamplesLargeUniqueList(t *testing.T) {
	unique := make([]string, 25)
	for i := range unique {
		unique[i] = fmt.Sprintf("/u/file%02d", i)
	}
	output := format(t, "pretty", NewResult(&types.Result{Unique: unique}, ScanStats{}))

	assert.Contains(t, output, "/u/file09")
	assert.NotContains(t, output, "/u/file10")
	assert.Contains(t, output, "... and 15 more unique files")
}

func TestPrettyFormatter_Format_ShortUniqueListShownInFull(t *testing.T) {
	unique := make([]string, 20)
	for i := range unique {
		unique[i] = fmt.Sprintf("/u/file%02d", i)
	}
	output := format(t, "pretty", NewResult(&types.Result{Unique: unique}, ScanStats{}))

	assert.Contains(t, output, "/u/file19")
	assert.NotContains(t, output, "more unique files")
}

func TestPrettyFormatter_Format_Metadata(t *testing.T) {
	r := NewResult(&types.Result{
		Metadata: []types.MetadataGroup{{Name: "photo.jpg", Size: 2048, Files: []string{"/a/photo.jpg", "/b/Photo.JPG"}}},
	}, ScanStats{})
	r.Fast = true

	output := format(t, "pretty", r)

	assert.Contains(t, output, "metadata only")
	assert.Contains(t, output, "GROUP 1: photo.jpg, 2 files (2.0 KiB each)")
	assert.Contains(t, output, "/b/Photo.JPG")
}

func TestPrettyFormatter_Format_WithWarnings(t *testing.T) {
	r := sampleResult()
	r.Warnings = []string{"config file ignored"}

	output := format(t, "pretty", r)

	assert.Contains(t, output, "Warnings:")
	assert.Contains(t, output, "config file ignored")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"250ms", "250ms"},
		{"2500ms", "2.5s"},
		{"125s", "2m 5s"},
		{"2h30m", "2h 30m"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(mustDuration(t, tt.in)))
		})
	}
}

func mustDuration(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := time.ParseDuration(s)
	require.NoError(t, err)
	return d
}
