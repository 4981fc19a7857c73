package features

import "math"

// Stat is an optional rolling statistic; Valid is false until the window is full.
type Stat struct {
	Value float64
	Valid bool
}

// ComputeReturns computes simple returns r_i = p_{i+1}/p_i - 1.
// It returns an empty, non-nil slice when fewer than two prices are given.
func ComputeReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// RollingStdDev computes the sample standard deviation over [i-window+1, i].
// Positions before window-1 are left invalid; no value looks ahead.
func RollingStdDev(returns []float64, window int) []Stat {
	out := make([]Stat, len(returns))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(returns); i++ {
		out[i] = Stat{Value: SampleStdDev(returns[i-window+1 : i+1]), Valid: true}
	}
	return out
}

// SampleStdDev uses the n-1 denominator. Fewer than two values yield 0.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	sum2 := 0.0
	for _, v := range values {
		d := v - mean
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(n-1))
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MovingAverage returns the mean of the last n values, false when there are fewer.
func MovingAverage(values []float64, n int) (float64, bool) {
	if n <= 0 || len(values) < n {
		return 0, false
	}
	return Mean(values[len(values)-n:]), true
}
