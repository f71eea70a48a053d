package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/franz/fitkeeper/internal/device"
	"github.com/franz/fitkeeper/internal/util"
)

// Job runs a device scan on a fixed interval. A tick that arrives while a
// scan is still running is skipped, so passes never overlap.
type Job struct {
	importer *Importer
	scanner  *device.Scanner
	interval time.Duration
	mu       sync.Mutex
}

// NewJob creates a periodic scan job. Intervals below one second are
// clamped.
func NewJob(importer *Importer, scanner *device.Scanner, interval time.Duration) *Job {
	if interval < time.Second {
		interval = time.Second
	}
	return &Job{
		importer: importer,
		scanner:  scanner,
		interval: interval,
	}
}

// Run scans once immediately, then on every interval tick until the
// context is cancelled
func (j *Job) Run(ctx context.Context) {
	util.InfoLog("Starting periodic device scan every %s", j.interval)

	j.RunOnce(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.InfoLog("Stopping periodic device scan")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single scan pass, or returns nil if one is already in
// flight
func (j *Job) RunOnce(ctx context.Context) *ScanResult {
	if !j.mu.TryLock() {
		util.DebugLog("Scan already running, skipping tick")
		return nil
	}
	defer j.mu.Unlock()

	return j.importer.ScanDevices(ctx, j.scanner, nil)
}
