package dip

import "DipScan/internal/domain/models"

// Project compounds returns into the growth of one unit: c_0 = 1+r_0, c_i = c_{i-1}(1+r_i).
func Project(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

// ProjectTrajectory projects the series retained on a scanned signal.
// Point i is trading day i+1 of the window, dated by the close that produced it.
func ProjectTrajectory(s models.AssetSignal) models.Trajectory {
	values := Project(s.Returns)
	dates := s.Prices.Dates()

	points := make([]models.TrajectoryPoint, len(values))
	for i, v := range values {
		p := models.TrajectoryPoint{Day: i + 1, Value: v}
		if i+1 < len(dates) {
			p.Date = dates[i+1]
		}
		points[i] = p
	}
	return models.Trajectory{Asset: s.Asset, Points: points}
}
