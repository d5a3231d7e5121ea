package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"klineDownloader/internal/domain"
)

// Column headers in output order.
var (
	HeaderZH = []string{"开盘时间", "开盘价", "最高价", "最低价", "收盘价", "成交量", "收盘时间", "成交额", "成交笔数", "主动买入成交量", "主动买入成交额"}
	HeaderEN = []string{"open_time", "open", "high", "low", "close", "volume", "close_time", "quote_asset_volume", "number_of_trades", "taker_buy_base_asset_volume", "taker_buy_quote_asset_volume"}
)

// HeaderFor returns the header row for a language code ("zh" or "en").
func HeaderFor(lang string) ([]string, error) {
	switch strings.ToLower(lang) {
	case "", "zh":
		return HeaderZH, nil
	case "en":
		return HeaderEN, nil
	default:
		return nil, fmt.Errorf("unsupported header language %q", lang)
	}
}

// WriteKlinesToTSV writes a header row followed by one tab-separated line per kline, overwriting filename.
func WriteKlinesToTSV(rows []domain.DisplayKline, header []string, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = '\t'

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.Fields()); err != nil {
			return fmt.Errorf("writing row %s: %w", row.OpenTime, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
