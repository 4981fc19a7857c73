package models

import "time"

type TrajectoryPoint struct {
	Day   int       `json:"day"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Trajectory is the compounded growth of one unit invested at the start of the window.
type Trajectory struct {
	Asset  Asset             `json:"asset"`
	Points []TrajectoryPoint `json:"points"`
}

func (t Trajectory) Final() float64 {
	if len(t.Points) == 0 {
		return 0
	}
	return t.Points[len(t.Points)-1].Value
}

const (
	TrendUp   = "uptrend"
	TrendDown = "downtrend"
)

// Insight summarises recent price behaviour of a selected asset.
type Insight struct {
	Asset      Asset   `json:"asset"`
	Available  bool    `json:"available"`
	LastClose  float64 `json:"last_close"`
	MA7        float64 `json:"ma7"`
	MA30       float64 `json:"ma30"`
	Trend      string  `json:"trend"`
	Volatility float64 `json:"volatility_pct"`
	Return30d  float64 `json:"return_30d_pct"`
}

// MonthlyAverage is the mean close of one calendar month, keyed "2006-01".
type MonthlyAverage struct {
	Month   string  `json:"month"`
	Average float64 `json:"average"`
	Days    int     `json:"days"`
}

// PriceProfile compares every close of a selected asset with the mean close of
// its whole window.
type PriceProfile struct {
	Asset         Asset            `json:"asset"`
	PeriodAverage float64          `json:"period_average"`
	Monthly       []MonthlyAverage `json:"monthly"`
	BelowAverage  []PricePoint     `json:"below_average"`
	BelowShare    float64          `json:"below_average_pct"`
}

// ScanSettings is the snapshot of parameters a report was produced with.
type ScanSettings struct {
	Provider          string  `json:"provider"`
	LookbackDays      int     `json:"lookback_days"`
	MinObservations   int     `json:"min_observations"`
	Window            int     `json:"window"`
	Horizons          []int   `json:"horizons"`
	HorizonMode       string  `json:"horizon_mode"`
	LikelyThreshold   float64 `json:"likely_threshold"`
	PossibleThreshold float64 `json:"possible_threshold"`
	TopN              int     `json:"top_n"`
}

type ScanReport struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	Settings     ScanSettings   `json:"settings"`
	Ranked       RankedResult   `json:"ranked"`
	Skipped      []SkippedAsset `json:"skipped"`
	Top          []AssetSignal  `json:"top"`
	Trajectories []Trajectory   `json:"trajectories"`
	Insights     []Insight      `json:"insights"`
	Profiles     []PriceProfile `json:"profiles"`
}

// Duration is the wall time the scan took.
func (r *ScanReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
