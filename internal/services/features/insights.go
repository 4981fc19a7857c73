package features

import "DipScan/internal/domain/models"

const (
	shortMA        = 7
	longMA         = 30
	insightHorizon = 30
)

// ComputeInsight derives moving-average trend, recent volatility and the 30-day
// return of a series. Available is false when fewer than 31 closes exist.
func ComputeInsight(asset models.Asset, prices models.PriceSeries) models.Insight {
	closes := prices.Closes()
	in := models.Insight{Asset: asset}
	if len(closes) < insightHorizon+1 {
		return in
	}

	ma7, _ := MovingAverage(closes, shortMA)
	ma30, _ := MovingAverage(closes, longMA)
	returns := ComputeReturns(closes)
	last := closes[len(closes)-1]

	in.Available = true
	in.LastClose = last
	in.MA7 = ma7
	in.MA30 = ma30
	in.Trend = models.TrendDown
	if ma7 > ma30 {
		in.Trend = models.TrendUp
	}
	in.Volatility = SampleStdDev(returns[len(returns)-insightHorizon:]) * 100
	in.Return30d = (last/closes[len(closes)-insightHorizon] - 1) * 100
	return in
}
