package laserball

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressSink receives one Update per processed batch.
type ProgressSink interface {
	// Start is called once; total is negative when unknown.
	Start(total int64)
	Update(events int)
	Finish()
}

type NopProgress struct{}

func (NopProgress) Start(int64) {}
func (NopProgress) Update(int)  {}
func (NopProgress) Finish()     {}

// LogProgress reports progress through the package logger.
type LogProgress struct {
	Label string

	total     int64
	processed int64
	start     time.Time
}

func NewLogProgress(label string) *LogProgress {
	return &LogProgress{Label: label}
}

func (p *LogProgress) Start(total int64) {
	p.total = total
	p.processed = 0
	p.start = time.Now()
	if total >= 0 {
		logger.Info(fmt.Sprintf("%s: %s events to process", p.Label, humanize.Comma(total)), "progress")
	}
}

func (p *LogProgress) Update(events int) {
	p.processed += int64(events)
	if p.total > 0 {
		percent := 100 * float64(p.processed) / float64(p.total)
		logger.Info(fmt.Sprintf("%s: %s / %s events (%.1f%%)", p.Label,
			humanize.Comma(p.processed), humanize.Comma(p.total), percent), "progress")
		return
	}
	logger.Info(fmt.Sprintf("%s: %s events", p.Label, humanize.Comma(p.processed)), "progress")
}

func (p *LogProgress) Finish() {
	elapsed := time.Since(p.start)
	logger.Info(fmt.Sprintf("%s: done, %s events in %d ms", p.Label,
		humanize.Comma(p.processed), elapsed.Milliseconds()), "progress")
}

func (p *LogProgress) Processed() int64 {
	return p.processed
}
