package models

import "encoding/json"

type Signal string

const (
	SignalLikelyDip   Signal = "LIKELY_DIP"
	SignalPossibleDip Signal = "POSSIBLE_DIP"
	SignalStable      Signal = "STABLE"
)

// Severity orders signals, higher is closer to a dip.
func (s Signal) Severity() int {
	switch s {
	case SignalLikelyDip:
		return 2
	case SignalPossibleDip:
		return 1
	default:
		return 0
	}
}

// Label is the console/report rendering of the signal.
func (s Signal) Label() string {
	switch s {
	case SignalLikelyDip:
		return "🔴 LIKELY DIP"
	case SignalPossibleDip:
		return "✅ POSSIBLE DIP"
	default:
		return "🟢 STABLE"
	}
}

// HorizonProbability is the dip frequency, in percent, over the last Horizon returns.
// Defined is false only in strict horizon mode when history is shorter than Horizon.
type HorizonProbability struct {
	Horizon int
	Value   float64
	Defined bool
}

func (h HorizonProbability) MarshalJSON() ([]byte, error) {
	var v *float64
	if h.Defined {
		v = &h.Value
	}
	return json.Marshal(struct {
		Horizon int      `json:"horizon"`
		Value   *float64 `json:"value"`
	}{h.Horizon, v})
}

func (h *HorizonProbability) UnmarshalJSON(b []byte) error {
	var raw struct {
		Horizon int      `json:"horizon"`
		Value   *float64 `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	h.Horizon = raw.Horizon
	h.Defined = raw.Value != nil
	h.Value = 0
	if raw.Value != nil {
		h.Value = *raw.Value
	}
	return nil
}

type HorizonProbabilities []HorizonProbability

func (hp HorizonProbabilities) Get(horizon int) (HorizonProbability, bool) {
	for _, p := range hp {
		if p.Horizon == horizon {
			return p, true
		}
	}
	return HorizonProbability{}, false
}

// AssetSignal is the per-asset outcome of a scan.
type AssetSignal struct {
	Rank          int                  `json:"rank"`
	Asset         Asset                `json:"asset"`
	Probabilities HorizonProbabilities `json:"probabilities"`
	Average       float64              `json:"avg"`
	Signal        Signal               `json:"signal"`
	Observations  int                  `json:"observations"`
	Position      int                  `json:"position"`

	// Series retained for projection and insights, never serialised.
	Prices  PriceSeries `json:"-"`
	Returns []float64   `json:"-"`
}

// RankedResult is ordered by Average descending, ties by universe position.
type RankedResult struct {
	Signals []AssetSignal `json:"signals"`
}

func (r RankedResult) Len() int { return len(r.Signals) }

// Top returns the first min(n, len) entries.
func (r RankedResult) Top(n int) []AssetSignal {
	if n <= 0 {
		return []AssetSignal{}
	}
	if n > len(r.Signals) {
		n = len(r.Signals)
	}
	out := make([]AssetSignal, n)
	copy(out, r.Signals[:n])
	return out
}

type SkipReason string

const (
	SkipDataUnavailable     SkipReason = "data_unavailable"
	SkipInsufficientHistory SkipReason = "insufficient_history"
	SkipMalformedData       SkipReason = "malformed_data"
)

type SkippedAsset struct {
	Asset        Asset      `json:"asset"`
	Reason       SkipReason `json:"reason"`
	Error        string     `json:"error"`
	Observations int        `json:"observations"`
	Position     int        `json:"position"`
}
