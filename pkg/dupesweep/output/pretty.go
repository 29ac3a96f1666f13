package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// Unique files are listed in full up to uniqueListLimit; beyond that only
// the first uniqueSample are shown.
const (
	uniqueListLimit = 20
	uniqueSample    = 10
	skippedSample   = 10
	digestDisplay   = 16
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	if len(r.Folders) == 0 && len(r.Duplicates) == 0 && len(r.Metadata) == 0 {
		w.WriteString(SuccessStyle.Render("No duplicates found"))
		w.WriteString("\n")
	}
	w.WriteString(f.formatFolders(r.Folders))
	w.WriteString(f.formatDuplicates(r.Duplicates))
	w.WriteString(f.formatMetadata(r.Metadata))
	w.WriteString(f.formatUnique(r.Unique))
	w.WriteString(f.formatSkipped(r.Skipped))
	w.WriteString(f.formatFooter(r))

	if len(r.Warnings) > 0 || len(r.Diagnostics) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(r))
	}

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s %s", LabelStyle.Render("Source:"), ValueStyle.Render(r.Source)))

	var infoParts []string
	infoParts = append(infoParts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Scanned:"),
		ValueStyle.Render(fmt.Sprintf("%s files in %s",
			humanize.Comma(r.Scan.FilesScanned), formatDuration(r.Scan.Duration)))))

	if r.Fast {
		infoParts = append(infoParts, WarningStyle.Render("metadata only"))
	} else {
		infoParts = append(infoParts, fmt.Sprintf("%s %s",
			LabelStyle.Render("Hashed:"),
			ValueStyle.Render(fmt.Sprintf("%s prefix, %s full",
				humanize.Comma(r.Stats.PrefixHashes), humanize.Comma(r.Stats.FullHashes)))))
		if r.Stats.IOWorkers > 0 {
			infoParts = append(infoParts, fmt.Sprintf("%s %s",
				LabelStyle.Render("Workers:"),
				ValueStyle.Render(fmt.Sprintf("%d io / %d cpu", r.Stats.IOWorkers, r.Stats.CPUWorkers))))
		}
	}
	lines = append(lines, strings.Join(infoParts, "  "))

	if r.Interrupted {
		notice := "Run interrupted: results are partial"
		if r.Stats.PendingFiles > 0 {
			notice += fmt.Sprintf(" (%s files not compared)", humanize.Comma(int64(r.Stats.PendingFiles)))
		}
		lines = append(lines, WarningStyle.Bold(true).Render(notice))
	}

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatFolders(groups []types.FolderGroup) string {
	if len(groups) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Duplicate folders"))
	sb.WriteString("\n")
	for i, g := range groups {
		sb.WriteString("\n")
		sb.WriteString(GroupStyle.Render(fmt.Sprintf("  FOLDER GROUP %d: %d identical folders (%d files, %s each)",
			i+1, len(g.Folders), g.FileCount, types.FormatSize(g.TotalSize))))
		sb.WriteString("\n")
		for _, p := range g.Folders {
			sb.WriteString("    " + PathStyle.Render(p) + "\n")
		}
		sb.WriteString("    " + LabelStyle.Render("reclaimable: ") + SavingsStyle.Render(types.FormatSize(g.WastedBytes())) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *PrettyFormatter) formatDuplicates(groups []types.DuplicateGroup) string {
	if len(groups) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Duplicate files"))
	sb.WriteString("\n")
	for i, g := range groups {
		sb.WriteString("\n")
		sb.WriteString(GroupStyle.Render(fmt.Sprintf("  GROUP %d: %d identical files (%s each)",
			i+1, len(g.Files), types.FormatSize(g.Size))))
		sb.WriteString("  ")
		sb.WriteString(MutedStyle.Render(shortDigest(g.Digest)))
		sb.WriteString("\n")
		for _, p := range g.Files {
			sb.WriteString("    " + PathStyle.Render(p) + "\n")
		}
		if w := g.WastedBytes(); w > 0 {
			sb.WriteString("    " + LabelStyle.Render("reclaimable: ") + SavingsStyle.Render(types.FormatSize(w)) + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *PrettyFormatter) formatMetadata(groups []types.MetadataGroup) string {
	if len(groups) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Possible duplicates (same name, size and time)"))
	sb.WriteString("\n")
	for i, g := range groups {
		sb.WriteString("\n")
		sb.WriteString(GroupStyle.Render(fmt.Sprintf("  GROUP %d: %s, %d files (%s each)",
			i+1, g.Name, len(g.Files), types.FormatSize(g.Size))))
		sb.WriteString("\n")
		for _, p := range g.Files {
			sb.WriteString("    " + PathStyle.Render(p) + "\n")
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func (f *PrettyFormatter) formatUnique(unique []string) string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("Unique files"))
	sb.WriteString(" ")
	sb.WriteString(ValueStyle.Render(humanize.Comma(int64(len(unique)))))
	sb.WriteString("\n")

	shown := unique
	if len(unique) > uniqueListLimit {
		shown = unique[:uniqueSample]
	}
	for _, p := range shown {
		sb.WriteString("    " + PathStyle.Render(p) + "\n")
	}
	if len(shown) < len(unique) {
		sb.WriteString(MutedStyle.Render(fmt.Sprintf("    ... and %s more unique files",
			humanize.Comma(int64(len(unique)-len(shown))))))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *PrettyFormatter) formatSkipped(skipped []types.SkippedFile) string {
	if len(skipped) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(WarningStyle.Bold(true).Render(fmt.Sprintf("Skipped %d files that could not be read", len(skipped))))
	sb.WriteString("\n")
	for i, s := range skipped {
		if i == skippedSample {
			sb.WriteString(MutedStyle.Render(fmt.Sprintf("    ... and %d more", len(skipped)-skippedSample)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString("    " + PathStyle.Render(s.Path) + " " + MutedStyle.Render("("+s.Category+")") + "\n")
	}
	return sb.String()
}

// formatFooter builds the footer box with summary information.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Files:"), ValueStyle.Render(humanize.Comma(int64(r.Stats.TotalFiles)))))

	groups := len(r.Duplicates) + len(r.Folders) + len(r.Metadata)
	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Groups:"), ValueStyle.Render(humanize.Comma(int64(groups)))))

	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Reclaimable:"), SizeStyle.Render(humanize.IBytes(uint64(r.Reclaimable())))))

	parts = append(parts, MutedStyle.Render("Use -o paths to list redundant copies"))

	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatWarnings lists warning messages and non-zero diagnostic counters.
func (f *PrettyFormatter) formatWarnings(r *Result) string {
	var sb strings.Builder

	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")

	cats := make([]string, 0, len(r.Diagnostics))
	for c, n := range r.Diagnostics {
		if n > 0 {
			cats = append(cats, c)
		}
	}
	sort.Strings(cats)
	for _, c := range cats {
		sb.WriteString(WarningStyle.Render(fmt.Sprintf("  %s: %d", c, r.Diagnostics[c])))
		sb.WriteString("\n")
	}
	for _, warning := range r.Warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}

	return sb.String()
}

func shortDigest(d types.Digest) string {
	s := string(d)
	if len(s) > digestDisplay {
		return s[:digestDisplay] + "..."
	}
	return s
}

// formatDuration formats a duration in a human-friendly way.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
