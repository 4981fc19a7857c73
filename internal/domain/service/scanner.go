package service

import (
	"context"

	"DipScan/internal/domain/models"
)

// Scanner runs one pass over the configured universe.
type Scanner interface {
	Scan(ctx context.Context) (*models.ScanReport, error)
}
