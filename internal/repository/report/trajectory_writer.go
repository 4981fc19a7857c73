package report

import (
	"context"
	"fmt"

	"DipScan/internal/domain/models"
)

// ChartRenderer turns a trajectory file into an image.
type ChartRenderer interface {
	Render(ctx context.Context, trajectoryPath string) error
}

type trajectoryDocument struct {
	RunID        string              `json:"run_id"`
	Title        string              `json:"title"`
	LookbackDays int                 `json:"lookback_days"`
	Series       []models.Trajectory `json:"series"`
}

// TrajectoryWriter stores the top-n cumulative return curves as JSON and
// optionally hands the file to a ChartRenderer.
type TrajectoryWriter struct {
	path     string
	renderer ChartRenderer
}

func NewTrajectoryWriter(path string, renderer ChartRenderer) *TrajectoryWriter {
	return &TrajectoryWriter{path: path, renderer: renderer}
}

func (w *TrajectoryWriter) Name() string { return "trajectories" }

func (w *TrajectoryWriter) Write(ctx context.Context, report *models.ScanReport) error {
	doc := trajectoryDocument{
		RunID:        report.RunID,
		Title:        fmt.Sprintf("Top %d Crypto Cumulative Returns (Last %d Days)", len(report.Trajectories), report.Settings.LookbackDays),
		LookbackDays: report.Settings.LookbackDays,
		Series:       report.Trajectories,
	}
	if doc.Series == nil {
		doc.Series = []models.Trajectory{}
	}
	if err := writePrettyJSON(w.path, doc); err != nil {
		return fmt.Errorf("write trajectories %s: %w", w.path, err)
	}
	if w.renderer == nil {
		return nil
	}
	if err := w.renderer.Render(ctx, w.path); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
