package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxBatchLimit is the largest number of klines the spot endpoint returns per request.
const MaxBatchLimit = 1000

// Interval describes a kline granularity supported by the exchange.
type Interval struct {
	Code     string
	Duration time.Duration
}

// 1M uses the shortest calendar month so that a window never spans more candles than requested.
var supportedIntervals = map[string]Interval{
	"1s":  {Code: "1s", Duration: time.Second},
	"1m":  {Code: "1m", Duration: time.Minute},
	"3m":  {Code: "3m", Duration: 3 * time.Minute},
	"5m":  {Code: "5m", Duration: 5 * time.Minute},
	"15m": {Code: "15m", Duration: 15 * time.Minute},
	"30m": {Code: "30m", Duration: 30 * time.Minute},
	"1h":  {Code: "1h", Duration: time.Hour},
	"2h":  {Code: "2h", Duration: 2 * time.Hour},
	"4h":  {Code: "4h", Duration: 4 * time.Hour},
	"6h":  {Code: "6h", Duration: 6 * time.Hour},
	"8h":  {Code: "8h", Duration: 8 * time.Hour},
	"12h": {Code: "12h", Duration: 12 * time.Hour},
	"1d":  {Code: "1d", Duration: 24 * time.Hour},
	"3d":  {Code: "3d", Duration: 3 * 24 * time.Hour},
	"1w":  {Code: "1w", Duration: 7 * 24 * time.Hour},
	"1M":  {Code: "1M", Duration: 28 * 24 * time.Hour},
}

// ParseInterval returns the interval for an exchange interval code.
// Codes are matched exactly: "1m" is one minute, "1M" is one month, " 1h" is unsupported.
func ParseInterval(code string) (Interval, error) {
	iv, ok := supportedIntervals[code]
	if !ok {
		return Interval{}, fmt.Errorf("unsupported interval %q (supported: %s)", code, strings.Join(SupportedIntervals(), ", "))
	}
	return iv, nil
}

// SupportedIntervals returns all interval codes ordered by duration.
func SupportedIntervals() []string {
	codes := make([]string, 0, len(supportedIntervals))
	for code := range supportedIntervals {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return supportedIntervals[codes[i]].Duration < supportedIntervals[codes[j]].Duration
	})
	return codes
}

// Millis returns the interval length in milliseconds.
func (iv Interval) Millis() int64 {
	return iv.Duration.Milliseconds()
}

// WindowSpanMillis returns the time span covered by limit consecutive candles.
func (iv Interval) WindowSpanMillis(limit int) int64 {
	return int64(limit) * iv.Millis()
}
