package output

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
)

// PlainFormatter formats output as an aligned table without colors.
// Every path in the report is one row, so the output greps and sorts cleanly.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("KIND\tGROUP\tSIZE\tPATH\n")); err != nil {
		return err
	}

	for _, row := range r.Rows() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			row.Kind, groupCell(row.Group), sizeCell(row.SizeHuman), row.Path); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func groupCell(g int) string {
	if g == 0 {
		return "-"
	}
	return strconv.Itoa(g)
}

func sizeCell(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
