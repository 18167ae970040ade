package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressReporter logs batch progress at most once per interval and always
// on the final item.
type ProgressReporter struct {
	mu          sync.Mutex
	total       int
	done        int
	failed      int
	description string
	interval    time.Duration
	startTime   time.Time
	lastReport  time.Time
	logger      *Logger
}

func NewProgressReporter(l *Logger, total int, description string) *ProgressReporter {
	if l == nil {
		l = GetLogger()
	}
	now := time.Now()
	return &ProgressReporter{
		total:       total,
		description: description,
		interval:    5 * time.Second,
		startTime:   now,
		lastReport:  now,
		logger:      l.WithField("component", "progress"),
	}
}

// SetInterval changes how often intermediate progress lines are emitted.
func (pr *ProgressReporter) SetInterval(d time.Duration) {
	pr.mu.Lock()
	pr.interval = d
	pr.mu.Unlock()
}

// Record marks one item as finished.
func (pr *ProgressReporter) Record(success bool) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.done++
	if !success {
		pr.failed++
	}

	now := time.Now()
	if now.Sub(pr.lastReport) >= pr.interval || pr.done >= pr.total {
		pr.report()
		pr.lastReport = now
	}
}

// Snapshot returns finished and failed counts.
func (pr *ProgressReporter) Snapshot() (done, failed, total int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.done, pr.failed, pr.total
}

// report must be called with the lock held
func (pr *ProgressReporter) report() {
	percentage := 100.0
	if pr.total > 0 {
		percentage = float64(pr.done) / float64(pr.total) * 100
	}
	elapsed := time.Since(pr.startTime)

	var eta string
	if pr.done > 0 && pr.done < pr.total {
		remaining := time.Duration(pr.total-pr.done) * (elapsed / time.Duration(pr.done))
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.logger.WithFields(map[string]interface{}{
		"done":    pr.done,
		"failed":  pr.failed,
		"total":   pr.total,
		"elapsed": elapsed.Round(time.Millisecond).String(),
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)%s", pr.description, pr.done, pr.total, percentage, eta))
}
