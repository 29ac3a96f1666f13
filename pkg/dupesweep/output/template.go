package output

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/types"
)

// defaultTemplate lists each duplicate group as a header line followed by its members.
const defaultTemplate = `{{range .Duplicates}}{{short .Digest}} {{bytes .Size}} x{{len .Files}}
{{range .Files}}  {{.}}
{{end}}{{end}}`

var templateFuncs = template.FuncMap{
	"bytes":  func(size int64) string { return humanize.IBytes(uint64(size)) },
	"short":  shortDigest,
	"wasted": func(g types.DuplicateGroup) int64 { return g.WastedBytes() },
}

// TemplateFormatter executes a text/template against the Result, so
// {{.Duplicates}}, {{.Folders}}, {{.Unique}}, {{.Stats}} and {{.Rows}} are
// available along with the bytes, short and wasted functions.
type TemplateFormatter struct {
	mu     sync.Mutex
	source string
	tmpl   *template.Template
}

// NewTemplateFormatter returns a formatter for source. The template is
// parsed on Compile or on first use.
func NewTemplateFormatter(source string) *TemplateFormatter {
	return &TemplateFormatter{source: source}
}

// SetTemplate replaces the template source.
func (f *TemplateFormatter) SetTemplate(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source, f.tmpl = source, nil
}

// Compile parses the template so syntax errors surface before a run.
func (f *TemplateFormatter) Compile() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.compiledLocked()
	return err
}

func (f *TemplateFormatter) compiledLocked() (*template.Template, error) {
	if f.tmpl != nil {
		return f.tmpl, nil
	}
	tmpl, err := template.New("output").Funcs(templateFuncs).Parse(f.source)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	f.tmpl = tmpl
	return tmpl, nil
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmpl, err := f.compiledLocked()
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}

func init() {
	Register("template", func() Formatter { return NewTemplateFormatter(defaultTemplate) })
}

var _ Formatter = (*TemplateFormatter)(nil)
