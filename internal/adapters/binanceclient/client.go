package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"klineDownloader/internal/domain"
	"klineDownloader/internal/ports"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLSpot    = "https://api.binance.com"
	baseURLFutures = "https://fapi.binance.com"

	defaultHTTPTimeout = 30 * time.Second
)

// Client implements the ports.KlineFetcher interface using the go-binance library.
type Client struct {
	market        domain.Market
	spotClient    *binance.Client
	futuresClient *futures.Client
	logger        ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	Market      domain.Market // spot (default) or futures
	BaseURL     string        // Overrides the market's production URL
	HTTPTimeout time.Duration // Per-request transport timeout
	Logger      ports.Logger
}

// New creates a new Binance client adapter for public market data.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	httpClient := &http.Client{Timeout: timeout}

	c := &Client{logger: cfg.Logger}
	switch cfg.Market {
	case domain.MarketSpot, "":
		c.market = domain.MarketSpot
		c.spotClient = binance.NewClient("", "")
		c.spotClient.HTTPClient = httpClient
		c.spotClient.BaseURL = baseURLSpot
		if cfg.BaseURL != "" {
			c.spotClient.BaseURL = cfg.BaseURL
		}
		cfg.Logger.Info(context.Background(), "Binance client configured for spot market", map[string]interface{}{"baseURL": c.spotClient.BaseURL})
	case domain.MarketFutures:
		c.market = domain.MarketFutures
		c.futuresClient = futures.NewClient("", "")
		c.futuresClient.HTTPClient = httpClient
		c.futuresClient.BaseURL = baseURLFutures
		if cfg.BaseURL != "" {
			c.futuresClient.BaseURL = cfg.BaseURL
		}
		cfg.Logger.Info(context.Background(), "Binance client configured for USD-M futures", map[string]interface{}{"baseURL": c.futuresClient.BaseURL})
	default:
		return nil, fmt.Errorf("unsupported market %q: %w", cfg.Market, ports.ErrConfigurationError)
	}

	return c, nil
}

// Market returns the market this client fetches from.
func (c *Client) Market() domain.Market {
	return c.market
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string, fields map[string]interface{}) error {
	if err == nil {
		return nil
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["operation"] = operation

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch {
		case apiErr.Code == -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case apiErr.Code == -1001 || apiErr.Code == -1007: // Disconnected / backend timeout
			mappedErr = ports.ErrTimeout
		case apiErr.Code <= -1100 && apiErr.Code >= -1199: // Parameter/Request format errors (-1120 bad interval, -1121 bad symbol)
			mappedErr = ports.ErrInvalidRequest
		case apiErr.Code == 0: // Non-2xx status without a Binance error body
			mappedErr = ports.ErrExchangeUnavailable
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, decoding)
	var finalErr error
	var netErr net.Error
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		finalErr = fmt.Errorf("%s failed: %w", operation, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	case strings.Contains(err.Error(), "invalid kline response"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrInvalidResponse, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// FetchKlines retrieves the klines opening inside [req.StartMs, req.EndMs) with a single request.
// Binance treats endTime as inclusive, so the request is sent with endTime = EndMs - 1.
func (c *Client) FetchKlines(ctx context.Context, req domain.FetchRequest) ([]*domain.Kline, error) {
	op := "FetchKlines"
	fields := map[string]interface{}{
		"symbol":   req.Symbol,
		"interval": req.Interval,
		"start":    req.StartMs,
		"end":      req.EndMs,
	}
	if err := validateFetchRequest(req); err != nil {
		return nil, c.handleError(ctx, fmt.Errorf("%w: %w", ports.ErrInvalidRequest, err), op, fields)
	}

	var (
		klines []*domain.Kline
		err    error
	)
	if c.market == domain.MarketFutures {
		klines, err = c.fetchFutures(ctx, req)
	} else {
		klines, err = c.fetchSpot(ctx, req)
	}
	if err != nil {
		return nil, c.handleError(ctx, err, op, fields)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": req.Symbol, "interval": req.Interval, "count": len(klines)})
	return klines, nil
}

func (c *Client) fetchSpot(ctx context.Context, req domain.FetchRequest) ([]*domain.Kline, error) {
	binanceKlines, err := c.spotClient.NewKlinesService().
		Symbol(req.Symbol).
		Interval(req.Interval).
		StartTime(req.StartMs).
		EndTime(req.EndMs - 1).
		Limit(req.Limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateSpotKline(bk)
		if err != nil {
			return nil, err
		}
		out = append(out, dk)
	}
	return out, nil
}

func (c *Client) fetchFutures(ctx context.Context, req domain.FetchRequest) ([]*domain.Kline, error) {
	binanceKlines, err := c.futuresClient.NewKlinesService().
		Symbol(req.Symbol).
		Interval(req.Interval).
		StartTime(req.StartMs).
		EndTime(req.EndMs - 1).
		Limit(req.Limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Kline, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		dk, err := translateFuturesKline(bk)
		if err != nil {
			return nil, err
		}
		out = append(out, dk)
	}
	return out, nil
}

func validateFetchRequest(req domain.FetchRequest) error {
	if req.Symbol == "" || req.Interval == "" {
		return errors.New("symbol and interval are required")
	}
	if req.StartMs >= req.EndMs {
		return fmt.Errorf("start %d must be before end %d", req.StartMs, req.EndMs)
	}
	if req.Limit <= 0 || req.Limit > domain.MaxBatchLimit {
		return fmt.Errorf("limit %d out of range 1..%d", req.Limit, domain.MaxBatchLimit)
	}
	return nil
}

// --- Translation Helpers ---

func translateSpotKline(bk *binance.Kline) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	return &domain.Kline{
		OpenTime:                 bk.OpenTime,
		Open:                     bk.Open,
		High:                     bk.High,
		Low:                      bk.Low,
		Close:                    bk.Close,
		Volume:                   bk.Volume,
		CloseTime:                bk.CloseTime,
		QuoteAssetVolume:         bk.QuoteAssetVolume,
		TradeCount:               bk.TradeNum,
		TakerBuyBaseAssetVolume:  bk.TakerBuyBaseAssetVolume,
		TakerBuyQuoteAssetVolume: bk.TakerBuyQuoteAssetVolume,
	}, nil
}

func translateFuturesKline(bk *futures.Kline) (*domain.Kline, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	return &domain.Kline{
		OpenTime:                 bk.OpenTime,
		Open:                     bk.Open,
		High:                     bk.High,
		Low:                      bk.Low,
		Close:                    bk.Close,
		Volume:                   bk.Volume,
		CloseTime:                bk.CloseTime,
		QuoteAssetVolume:         bk.QuoteAssetVolume,
		TradeCount:               bk.TradeNum,
		TakerBuyBaseAssetVolume:  bk.TakerBuyBaseAssetVolume,
		TakerBuyQuoteAssetVolume: bk.TakerBuyQuoteAssetVolume,
	}, nil
}
