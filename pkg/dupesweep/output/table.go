package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

var recordHeader = []string{"kind", "group", "size", "digest", "path"}

// record flattens a row into the column order of recordHeader. Sizes are
// raw byte counts.
func record(row Row) []string {
	return []string{
		row.Kind,
		strconv.Itoa(row.Group),
		strconv.FormatInt(row.Size, 10),
		row.Digest,
		row.Path,
	}
}

// TSVFormatter writes one tab-separated record per row. Fields are not
// quoted, so paths containing tabs or newlines need the csv format.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(strings.ToUpper(strings.Join(recordHeader, "\t")))
	w.WriteByte('\n')
	for _, row := range r.Rows() {
		w.WriteString(strings.Join(record(row), "\t"))
		w.WriteByte('\n')
	}
	return nil
}

// CSVFormatter writes RFC 4180 records with encoding/csv quoting.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(recordHeader); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		if err := writer.Write(record(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// MarkdownFormatter formats folder, duplicate and metadata groups as a
// GitHub-flavored Markdown table. Unique and skipped files are summarised
// by count only.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString("| KIND | GROUP | SIZE | PATH |\n")
	w.WriteString("|------|-------|------|------|\n")

	for _, row := range r.Rows() {
		if row.Kind == KindUnique || row.Kind == KindSkipped {
			continue
		}
		fmt.Fprintf(w, "| %s | %d | %s | %s |\n",
			row.Kind, row.Group, escapeMarkdownPipe(row.SizeHuman), escapeMarkdownPipe(row.Path))
	}

	fmt.Fprintf(w, "\n%d unique, %d skipped\n", len(r.Unique), len(r.Skipped))
	return nil
}

func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func init() {
	Register("tsv", func() Formatter { return &TSVFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
