package symbols

// Builtin returns the shipped mapping table. Provider identifier formats:
//   - finnhub:    plain tickers for equities/indices, OANDA:EUR_USD for FX,
//     BINANCE:BTCUSDT for crypto
//   - twelvedata: slash pairs (EUR/USD, XAU/USD) and plain tickers
//   - coingecko:  coin ids (bitcoin, ethereum)
func Builtin() *Table {
	t, err := NewTable(builtinEntries)
	if err != nil {
		panic(err)
	}
	return t
}

var builtinEntries = []Mapping{
	// Spot FX majors
	{Symbol: "EURUSD", Name: "Euro / US Dollar", Class: ClassSpotFX, Decimals: 5, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "EUR/USD", "finnhub": "OANDA:EUR_USD"}},
	{Symbol: "GBPUSD", Name: "British Pound / US Dollar", Class: ClassSpotFX, Decimals: 5, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "GBP/USD", "finnhub": "OANDA:GBP_USD"}},
	{Symbol: "USDJPY", Name: "US Dollar / Japanese Yen", Class: ClassSpotFX, Decimals: 3, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "USD/JPY", "finnhub": "OANDA:USD_JPY"}},
	{Symbol: "AUDUSD", Name: "Australian Dollar / US Dollar", Class: ClassSpotFX, Decimals: 5, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "AUD/USD", "finnhub": "OANDA:AUD_USD"}},
	{Symbol: "USDCAD", Name: "US Dollar / Canadian Dollar", Class: ClassSpotFX, Decimals: 5, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "USD/CAD", "finnhub": "OANDA:USD_CAD"}},
	{Symbol: "USDCHF", Name: "US Dollar / Swiss Franc", Class: ClassSpotFX, Decimals: 5, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "USD/CHF", "finnhub": "OANDA:USD_CHF"}},
	{Symbol: "NZDUSD", Name: "New Zealand Dollar / US Dollar", Class: ClassSpotFX, Decimals: 5, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "NZD/USD", "finnhub": "OANDA:NZD_USD"}},

	// Spot metals trade under the FX convention, not the futures one.
	{Symbol: "XAUUSD", Name: "Gold Spot", Class: ClassSpotFX, Decimals: 2, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "XAU/USD", "finnhub": "OANDA:XAU_USD"}},
	{Symbol: "XAGUSD", Name: "Silver Spot", Class: ClassSpotFX, Decimals: 3, Preferred: "twelvedata",
		ProviderIDs: map[string]string{"twelvedata": "XAG/USD", "finnhub": "OANDA:XAG_USD"}},
	{Symbol: "GOLD", AliasOf: "XAUUSD"},
	{Symbol: "SILVER", AliasOf: "XAGUSD"},

	// Energy futures proxies
	{Symbol: "USOIL", Name: "WTI Crude Oil", Class: ClassFutures, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "OANDA:WTICO_USD", "twelvedata": "WTI/USD"}},
	{Symbol: "UKOIL", Name: "Brent Crude Oil", Class: ClassFutures, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "OANDA:BCO_USD", "twelvedata": "BRN/USD"}},
	{Symbol: "WTI", AliasOf: "USOIL"},

	// Indices
	{Symbol: "US500", Name: "S&P 500", Class: ClassIndex, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "^GSPC", "twelvedata": "SPX"}},
	{Symbol: "US100", Name: "Nasdaq 100", Class: ClassIndex, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "^NDX", "twelvedata": "NDX"}},
	{Symbol: "US30", Name: "Dow Jones Industrial Average", Class: ClassIndex, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "^DJI", "twelvedata": "DJI"}},
	{Symbol: "GER40", Name: "DAX 40", Class: ClassIndex, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "^GDAXI", "twelvedata": "DAX"}},
	{Symbol: "SPX", AliasOf: "US500"},
	{Symbol: "SPX500", AliasOf: "US500"},
	{Symbol: "NAS100", AliasOf: "US100"},
	{Symbol: "DAX", AliasOf: "GER40"},
	{Symbol: "DOW", AliasOf: "US30"},

	// Crypto
	{Symbol: "BTCUSD", Name: "Bitcoin", Class: ClassCrypto, Decimals: 2, Preferred: "coingecko",
		ProviderIDs: map[string]string{"coingecko": "bitcoin", "twelvedata": "BTC/USD", "finnhub": "BINANCE:BTCUSDT"}},
	{Symbol: "ETHUSD", Name: "Ethereum", Class: ClassCrypto, Decimals: 2, Preferred: "coingecko",
		ProviderIDs: map[string]string{"coingecko": "ethereum", "twelvedata": "ETH/USD", "finnhub": "BINANCE:ETHUSDT"}},
	{Symbol: "SOLUSD", Name: "Solana", Class: ClassCrypto, Decimals: 2, Preferred: "coingecko",
		ProviderIDs: map[string]string{"coingecko": "solana", "twelvedata": "SOL/USD", "finnhub": "BINANCE:SOLUSDT"}},
	{Symbol: "XRPUSD", Name: "XRP", Class: ClassCrypto, Decimals: 4, Preferred: "coingecko",
		ProviderIDs: map[string]string{"coingecko": "ripple", "twelvedata": "XRP/USD", "finnhub": "BINANCE:XRPUSDT"}},
	{Symbol: "DOGEUSD", Name: "Dogecoin", Class: ClassCrypto, Decimals: 5, Preferred: "coingecko",
		ProviderIDs: map[string]string{"coingecko": "dogecoin", "twelvedata": "DOGE/USD", "finnhub": "BINANCE:DOGEUSDT"}},
	{Symbol: "BTC", AliasOf: "BTCUSD"},
	{Symbol: "BITCOIN", AliasOf: "BTCUSD"},
	{Symbol: "ETH", AliasOf: "ETHUSD"},
	{Symbol: "SOL", AliasOf: "SOLUSD"},
	{Symbol: "XRP", AliasOf: "XRPUSD"},
	{Symbol: "DOGE", AliasOf: "DOGEUSD"},

	// Large-cap equities
	{Symbol: "AAPL", Name: "Apple Inc.", Class: ClassEquity, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "AAPL", "twelvedata": "AAPL"}},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Class: ClassEquity, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "MSFT", "twelvedata": "MSFT"}},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Class: ClassEquity, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "NVDA", "twelvedata": "NVDA"}},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Class: ClassEquity, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "TSLA", "twelvedata": "TSLA"}},
	{Symbol: "AMZN", Name: "Amazon.com, Inc.", Class: ClassEquity, Decimals: 2, Preferred: "finnhub",
		ProviderIDs: map[string]string{"finnhub": "AMZN", "twelvedata": "AMZN"}},
}

// staticLastKnown is the last-resort price table: one fixed plausible value
// per well-known symbol, served only when live fetch and stale cache both
// come up empty. Accuracy is sacrificed for availability.
var staticLastKnown = map[string]float64{
	"EURUSD":  1.08,
	"GBPUSD":  1.27,
	"USDJPY":  151.50,
	"AUDUSD":  0.66,
	"USDCAD":  1.37,
	"USDCHF":  0.88,
	"NZDUSD":  0.60,
	"XAUUSD":  2650.00,
	"XAGUSD":  30.50,
	"USOIL":   72.00,
	"UKOIL":   76.00,
	"US500":   5900.00,
	"US100":   21000.00,
	"US30":    43500.00,
	"GER40":   20300.00,
	"BTCUSD":  97000.00,
	"ETHUSD":  3400.00,
	"SOLUSD":  210.00,
	"XRPUSD":  2.20,
	"DOGEUSD": 0.32,
	"AAPL":    235.00,
	"MSFT":    430.00,
	"NVDA":    140.00,
	"TSLA":    350.00,
	"AMZN":    210.00,
}

// LastKnownGood returns the static fallback price for a canonical symbol.
func LastKnownGood(symbol string) (float64, bool) {
	v, ok := staticLastKnown[Normalize(symbol)]
	return v, ok
}
