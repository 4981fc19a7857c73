package config

// defaultTickers is the scanned universe when none is configured, in ranking tie-break order.
var defaultTickers = []struct{ ticker, coingecko string }{
	{"BTC-USD", "bitcoin"},
	{"ETH-USD", "ethereum"},
	{"XRP-USD", "ripple"},
	{"DOGE-USD", "dogecoin"},
	{"SOL-USD", "solana"},
	{"ADA-USD", "cardano"},
	{"DOT-USD", "polkadot"},
	{"AVAX-USD", "avalanche-2"},
	{"MATIC-USD", "matic-network"},
	{"LTC-USD", "litecoin"},
	{"TRX-USD", "tron"},
	{"UNI1-USD", "uniswap"},
	{"BCH-USD", "bitcoin-cash"},
	{"XLM-USD", "stellar"},
	{"LINK-USD", "chainlink"},
	{"ATOM-USD", "cosmos"},
	{"ETC-USD", "ethereum-classic"},
	{"FIL-USD", "filecoin"},
	{"HBAR-USD", "hedera-hashgraph"},
	{"AAVE-USD", "aave"},
	{"SAND-USD", "the-sandbox"},
	{"EGLD-USD", "elrond-erd-2"},
	{"MKR-USD", "maker"},
	{"AR-USD", "arweave"},
	{"NEAR-USD", "near"},
	{"QNT-USD", "quant-network"},
	{"IMX-USD", "immutable-x"},
	{"RUNE-USD", "thorchain"},
	{"ZEC-USD", "zcash"},
	{"ICX-USD", "icon"},
}

func DefaultUniverse() []AssetConfig {
	out := make([]AssetConfig, 0, len(defaultTickers))
	for _, t := range defaultTickers {
		out = append(out, AssetConfig{Ticker: t.ticker, CoinGeckoID: t.coingecko})
	}
	return out
}

func knownCoinGeckoID(ticker string) string {
	for _, t := range defaultTickers {
		if t.ticker == ticker {
			return t.coingecko
		}
	}
	return ""
}
