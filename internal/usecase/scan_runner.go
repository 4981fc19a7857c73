package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"DipScan/internal/domain/models"
	"DipScan/internal/domain/service"
	applogger "DipScan/pkg/logger"
)

var ErrScanInProgress = errors.New("scan already in progress")

// ScanStatus describes the runner state exposed by the dashboard.
type ScanStatus struct {
	Running      bool      `json:"running"`
	LastRunID    string    `json:"last_run_id,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	LastStarted  time.Time `json:"last_started,omitempty"`
	LastFinished time.Time `json:"last_finished,omitempty"`
	Runs         int       `json:"runs"`
}

// ScanRunner serialises scans: one at a time, a second trigger is refused.
type ScanRunner struct {
	scanner service.Scanner
	l       *applogger.Logger
	now     func() time.Time

	mu     sync.Mutex
	status ScanStatus
	wg     sync.WaitGroup
}

func NewScanRunner(scanner service.Scanner, l *applogger.Logger) *ScanRunner {
	if l == nil {
		l = applogger.Nop()
	}
	return &ScanRunner{scanner: scanner, l: l, now: time.Now}
}

// Run scans synchronously.
func (r *ScanRunner) Run(ctx context.Context) (*models.ScanReport, error) {
	if !r.begin() {
		return nil, ErrScanInProgress
	}
	return r.run(ctx)
}

// Trigger starts a scan in the background and returns immediately.
func (r *ScanRunner) Trigger(ctx context.Context) error {
	if !r.begin() {
		return ErrScanInProgress
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.run(ctx); err != nil {
			r.l.Error("background scan failed", applogger.Error(err))
		}
	}()
	return nil
}

// Wait blocks until background scans started by Trigger return.
func (r *ScanRunner) Wait() {
	r.wg.Wait()
}

func (r *ScanRunner) Status() ScanStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *ScanRunner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Running {
		return false
	}
	r.status.Running = true
	r.status.LastStarted = r.now()
	return true
}

func (r *ScanRunner) run(ctx context.Context) (*models.ScanReport, error) {
	report, err := r.scanner.Scan(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Running = false
	r.status.Runs++
	r.status.LastFinished = r.now()
	r.status.LastError = ""
	if report != nil {
		r.status.LastRunID = report.RunID
	}
	if err != nil {
		r.status.LastError = err.Error()
	}
	return report, err
}
