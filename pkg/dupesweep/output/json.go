package output

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// document is the structure written by the json and yaml formatters. The
// run's own fields appear at the top level.
type document struct {
	types.Result `yaml:",inline"`

	Scan        scanDoc    `json:"scan" yaml:"scan"`
	Summary     summaryDoc `json:"summary" yaml:"summary"`
	Warnings    []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Interrupted bool       `json:"interrupted" yaml:"interrupted"`
	Fast        bool       `json:"fast,omitempty" yaml:"fast,omitempty"`
}

type scanDoc struct {
	Source       string `json:"source" yaml:"source"`
	DirsScanned  int64  `json:"dirs_scanned" yaml:"dirs_scanned"`
	FilesScanned int64  `json:"files_scanned" yaml:"files_scanned"`
	Duration     string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

type summaryDoc struct {
	Reclaimable      int64  `json:"reclaimable" yaml:"reclaimable"`
	ReclaimableHuman string `json:"reclaimable_human" yaml:"reclaimable_human"`
	Elapsed          string `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
}

// buildDocument converts Result to the serialised structure.
func buildDocument(r *Result) document {
	doc := document{
		Scan: scanDoc{
			Source:       r.Source,
			DirsScanned:  r.Scan.DirsScanned,
			FilesScanned: r.Scan.FilesScanned,
			Duration:     formatDurationString(r.Scan.Duration),
		},
		Summary: summaryDoc{
			Reclaimable:      r.Reclaimable(),
			ReclaimableHuman: types.FormatSize(r.Reclaimable()),
			Elapsed:          formatDurationString(r.Stats.Elapsed),
		},
		Warnings:    r.Warnings,
		Interrupted: r.Interrupted,
		Fast:        r.Fast,
	}
	if r.Result != nil {
		doc.Result = *r.Result
	}
	if doc.Duplicates == nil {
		doc.Duplicates = []types.DuplicateGroup{}
	}
	if doc.Unique == nil {
		doc.Unique = []string{}
	}
	if doc.Folders == nil {
		doc.Folders = []types.FolderGroup{}
	}
	return doc
}

// formatDurationString formats a duration for serialised output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// JSONFormatter formats output as a single indented JSON object.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON, one Row per line.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows() {
		data, err := json.Marshal(row)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
