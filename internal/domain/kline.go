package domain

// Kline represents a single candlestick as returned by the exchange.
// Prices and volumes are kept as the exchange's text tokens.
type Kline struct {
	OpenTime                 int64  // Open time in Unix milliseconds
	Open                     string // Opening price
	High                     string // Highest price
	Low                      string // Lowest price
	Close                    string // Closing price
	Volume                   string // Base asset volume
	CloseTime                int64  // Close time in Unix milliseconds
	QuoteAssetVolume         string // Quote asset volume
	TradeCount               int64  // Number of trades
	TakerBuyBaseAssetVolume  string // Taker buy base asset volume
	TakerBuyQuoteAssetVolume string // Taker buy quote asset volume
}

// FetchRequest describes one remote kline request over the half-open range [StartMs, EndMs).
type FetchRequest struct {
	Symbol   string
	Interval string
	StartMs  int64
	EndMs    int64
	Limit    int
}

// DownloadRequest is the input of a single download run.
type DownloadRequest struct {
	Symbol    string
	Interval  string
	StartDate string // YYYY-MM-DD, inclusive
	EndDate   string // YYYY-MM-DD, exclusive
}
