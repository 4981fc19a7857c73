package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"DipScan/internal/domain/models"
)

// CSVWriter writes the ranked table with columns name, ticker, prob_<H>..., avg, signal.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Name() string { return "csv" }

func (w *CSVWriter) Path() string { return w.path }

func (w *CSVWriter) Write(_ context.Context, report *models.ScanReport) error {
	err := writeFileAtomic(w.path, func(out io.Writer) error {
		return EncodeCSV(out, report)
	})
	if err != nil {
		return fmt.Errorf("write csv %s: %w", w.path, err)
	}
	return nil
}

// EncodeCSV renders the ranked table. Undefined horizon values are left empty.
func EncodeCSV(out io.Writer, report *models.ScanReport) error {
	horizons := reportHorizons(report)

	cw := csv.NewWriter(out)
	header := []string{"name", "ticker"}
	for _, h := range horizons {
		header = append(header, "prob_"+strconv.Itoa(h))
	}
	header = append(header, "avg", "signal")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, sig := range report.Ranked.Signals {
		row := []string{sig.Asset.Display(), sig.Asset.Ticker}
		for _, h := range horizons {
			p, ok := sig.Probabilities.Get(h)
			if !ok || !p.Defined {
				row = append(row, "")
				continue
			}
			row = append(row, formatPct(p.Value))
		}
		row = append(row, formatPct(sig.Average), sig.Signal.Label())
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func reportHorizons(report *models.ScanReport) []int {
	if len(report.Settings.Horizons) > 0 {
		return report.Settings.Horizons
	}
	if len(report.Ranked.Signals) == 0 {
		return nil
	}
	probs := report.Ranked.Signals[0].Probabilities
	out := make([]int, 0, len(probs))
	for _, p := range probs {
		out = append(out, p.Horizon)
	}
	return out
}
