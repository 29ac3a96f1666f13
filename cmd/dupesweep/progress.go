package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/jamesainslie/dupesweep/pkg/dupesweep/engine"
	"github.com/jamesainslie/dupesweep/pkg/dupesweep/scanner"
)

// stageLabels names engine stages on the progress bar.
var stageLabels = map[string]string{
	engine.StagePrefix: "Comparing prefixes",
	engine.StageFull:   "Hashing candidates",
}

// progressReporter draws one progress bar per stage on w. A nil reporter
// draws nothing, so callers pass its methods as callbacks unconditionally.
type progressReporter struct {
	w io.Writer

	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	stage string
	max   int
}

func newProgressReporter(w io.Writer, enabled bool) *progressReporter {
	if !enabled {
		return nil
	}
	return &progressReporter{w: w}
}

// scan shows an indeterminate spinner while the tree is walked.
func (p *progressReporter) scan(sp scanner.Progress) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if sp.WalkComplete {
		p.finishLocked()
		return
	}
	if p.stage != "scan" {
		p.finishLocked()
		p.stage = "scan"
		p.bar = p.newBar(-1, "Scanning")
	}
	p.bar.Describe(fmt.Sprintf("Scanning: %s files, %s",
		humanize.Comma(sp.FilesMatched), humanize.IBytes(uint64(sp.BytesMatched))))
	_ = p.bar.Set64(sp.FilesScanned)
}

// hash tracks an engine stage. A new bar is started whenever the stage or
// its size changes, which in streaming mode happens once per batch.
func (p *progressReporter) hash(ep engine.Progress) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if ep.Stage != p.stage || (ep.Done == 0 && ep.Total != p.max) {
		p.finishLocked()
		if ep.Total == 0 {
			return
		}
		label, ok := stageLabels[ep.Stage]
		if !ok {
			label = ep.Stage
		}
		p.stage, p.max = ep.Stage, ep.Total
		p.bar = p.newBar(int64(ep.Total), label)
	}
	if p.bar != nil {
		_ = p.bar.Set(ep.Done)
	}
}

// finish removes any bar still on screen.
func (p *progressReporter) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishLocked()
}

func (p *progressReporter) finishLocked() {
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
	p.stage, p.max = "", 0
}

func (p *progressReporter) newBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
