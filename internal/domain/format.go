package domain

import (
	"strconv"
	"time"
)

// DisplayTimeLayout is the format of timestamps written to output files.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// DisplayKline is a kline rendered for output: timestamps as local time strings, all fields text.
type DisplayKline struct {
	OpenTime                 string
	Open                     string
	High                     string
	Low                      string
	Close                    string
	Volume                   string
	CloseTime                string
	QuoteAssetVolume         string
	TradeCount               string
	TakerBuyBaseAssetVolume  string
	TakerBuyQuoteAssetVolume string
}

// FormatMillis renders a Unix millisecond timestamp in loc.
func FormatMillis(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(DisplayTimeLayout)
}

// FormatKline converts a raw kline into its display form.
func FormatKline(k *Kline, loc *time.Location) DisplayKline {
	return DisplayKline{
		OpenTime:                 FormatMillis(k.OpenTime, loc),
		Open:                     k.Open,
		High:                     k.High,
		Low:                      k.Low,
		Close:                    k.Close,
		Volume:                   k.Volume,
		CloseTime:                FormatMillis(k.CloseTime, loc),
		QuoteAssetVolume:         k.QuoteAssetVolume,
		TradeCount:               strconv.FormatInt(k.TradeCount, 10),
		TakerBuyBaseAssetVolume:  k.TakerBuyBaseAssetVolume,
		TakerBuyQuoteAssetVolume: k.TakerBuyQuoteAssetVolume,
	}
}

// FormatKlines converts klines in order.
func FormatKlines(klines []*Kline, loc *time.Location) []DisplayKline {
	out := make([]DisplayKline, 0, len(klines))
	for _, k := range klines {
		out = append(out, FormatKline(k, loc))
	}
	return out
}

// Fields returns the row in output column order.
func (d DisplayKline) Fields() []string {
	return []string{
		d.OpenTime,
		d.Open,
		d.High,
		d.Low,
		d.Close,
		d.Volume,
		d.CloseTime,
		d.QuoteAssetVolume,
		d.TradeCount,
		d.TakerBuyBaseAssetVolume,
		d.TakerBuyQuoteAssetVolume,
	}
}
