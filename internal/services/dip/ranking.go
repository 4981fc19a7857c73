package dip

import (
	"sort"

	"DipScan/internal/domain/models"
)

// Rank orders signals by average descending, equal averages keep universe order.
// The input is not modified; ranks are 1-based.
func Rank(signals []models.AssetSignal) models.RankedResult {
	out := make([]models.AssetSignal, len(signals))
	copy(out, signals)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			return out[i].Average > out[j].Average
		}
		return out[i].Position < out[j].Position
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return models.RankedResult{Signals: out}
}
