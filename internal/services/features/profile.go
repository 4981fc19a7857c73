package features

import "DipScan/internal/domain/models"

const monthLayout = "2006-01"

// MonthlyAverages buckets closes by UTC calendar month, in order of first appearance.
func MonthlyAverages(prices models.PriceSeries) []models.MonthlyAverage {
	var out []models.MonthlyAverage
	var sums []float64
	index := make(map[string]int)
	for _, p := range prices.Points {
		key := p.Date.UTC().Format(monthLayout)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, models.MonthlyAverage{Month: key})
			sums = append(sums, 0)
		}
		sums[i] += p.Close
		out[i].Days++
	}
	for i := range out {
		out[i].Average = sums[i] / float64(out[i].Days)
	}
	return out
}

// BelowAverageDays returns the points closing strictly under the mean close of the
// series, together with that mean.
func BelowAverageDays(prices models.PriceSeries) ([]models.PricePoint, float64) {
	if prices.Len() == 0 {
		return nil, 0
	}
	avg := Mean(prices.Closes())
	var below []models.PricePoint
	for _, p := range prices.Points {
		if p.Close < avg {
			below = append(below, p)
		}
	}
	return below, avg
}

// ComputeProfile builds the monthly and below-average view of one asset's window.
func ComputeProfile(asset models.Asset, prices models.PriceSeries) models.PriceProfile {
	below, avg := BelowAverageDays(prices)
	pr := models.PriceProfile{
		Asset:         asset,
		PeriodAverage: avg,
		Monthly:       MonthlyAverages(prices),
		BelowAverage:  below,
	}
	if n := prices.Len(); n > 0 {
		pr.BelowShare = float64(len(below)) / float64(n) * 100
	}
	return pr
}
