package usecase

import (
	"context"
	"sync"

	"DipScan/internal/domain/models"
)

// ReportStore keeps the latest finished report in memory for the dashboard.
// It is a report sink, so the scanner feeds it like any other output.
type ReportStore struct {
	mu     sync.RWMutex
	latest *models.ScanReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{}
}

func (s *ReportStore) Name() string { return "memory" }

func (s *ReportStore) Write(_ context.Context, report *models.ScanReport) error {
	s.mu.Lock()
	s.latest = report
	s.mu.Unlock()
	return nil
}

// Latest returns the last report, or false before the first scan completes.
func (s *ReportStore) Latest() (*models.ScanReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.latest != nil
}
