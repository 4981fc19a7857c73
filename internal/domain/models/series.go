package models

import (
	"fmt"
	"math"
	"time"
)

type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds daily closes in ascending date order.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

func (s PriceSeries) Len() int { return len(s.Points) }

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

func (s PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Date
	}
	return out
}

// Tail keeps the most recent n points.
func (s PriceSeries) Tail(n int) PriceSeries {
	if n <= 0 || n >= len(s.Points) {
		return s
	}
	return PriceSeries{Ticker: s.Ticker, Points: s.Points[len(s.Points)-n:]}
}

// Validate reports the first point breaking ordering or price sanity.
func (s PriceSeries) Validate() error {
	for i, p := range s.Points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return fmt.Errorf("close %v at %s is not a positive price", p.Close, p.Date.Format(time.DateOnly))
		}
		if i == 0 {
			continue
		}
		prev := s.Points[i-1].Date
		if !p.Date.After(prev) {
			return fmt.Errorf("date %s does not follow %s", p.Date.Format(time.DateOnly), prev.Format(time.DateOnly))
		}
	}
	return nil
}
