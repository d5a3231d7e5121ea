package ports

import (
	"context"

	"klineDownloader/internal/domain"
)

// KlineFetcher retrieves historical klines from an exchange.
// This abstraction allows decoupling the download logic from specific exchange implementations.
type KlineFetcher interface {
	// FetchKlines performs a single request for klines opening inside [req.StartMs, req.EndMs).
	// Returns the klines in chronological order, or an error if the request failed.
	// Implementations must not retry.
	FetchKlines(ctx context.Context, req domain.FetchRequest) ([]*domain.Kline, error)
}
