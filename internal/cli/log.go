package cli

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/xbpar/pkg/par"
)

// heartbeat is the interval of "still searching" log lines.
const heartbeat = 10 * time.Second

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progressLogger turns engine progress snapshots into log lines: the first
// cost seen, every improvement of the best cost, and a heartbeat while the
// search makes no headway.
//
// Snapshots from parallel seeds arrive on several goroutines, so the
// logger is locked.
type progressLogger struct {
	logger *log.Logger
	budget time.Duration

	mu       sync.Mutex
	lastBest int
	start    time.Time
	lastLog  time.Time
	now      func() time.Time
}

func newProgressLogger(logger *log.Logger, budget time.Duration) *progressLogger {
	return &progressLogger{
		logger:   logger,
		budget:   budget,
		lastBest: -1,
		start:    time.Now(),
		now:      time.Now,
	}
}

// onProgress implements the engine's progress callback.
func (p *progressLogger) onProgress(pr par.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.lastBest < 0:
		p.logger.Infof("Initial: cost %d (iteration %d)", pr.BestCost, pr.Iteration)
		p.lastLog = p.now()
	case pr.BestCost < p.lastBest:
		p.logger.Infof("Improved: cost %d (↓%d, iteration %d)", pr.BestCost, p.lastBest-pr.BestCost, pr.Iteration)
		p.lastLog = p.now()
	default:
		if p.now().Sub(p.lastLog) >= heartbeat {
			elapsed := p.now().Sub(p.start).Truncate(time.Second)
			p.logger.Infof("Searching... %v/%v elapsed, best cost %d (temperature %.3g)", elapsed, p.budget, pr.BestCost, pr.Temperature)
			p.lastLog = p.now()
		}
		return
	}
	p.lastBest = pr.BestCost
}
