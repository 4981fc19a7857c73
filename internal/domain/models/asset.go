package models

import "strings"

// Asset is one member of the scanned universe.
type Asset struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	CoinGeckoID string `json:"coingecko_id,omitempty"`
}

// NewAsset fills Name from the ticker when it is not given.
func NewAsset(ticker, name, coinGeckoID string) Asset {
	if name == "" {
		name = DisplayName(ticker)
	}
	return Asset{Ticker: ticker, Name: name, CoinGeckoID: coinGeckoID}
}

// Display is the configured name, or the ticker without its quote suffix when
// the asset was built without NewAsset.
func (a Asset) Display() string {
	if a.Name != "" {
		return a.Name
	}
	return DisplayName(a.Ticker)
}

// DisplayName strips the quote currency suffix, "BTC-USD" -> "BTC".
func DisplayName(ticker string) string {
	return strings.TrimSuffix(ticker, "-USD")
}
