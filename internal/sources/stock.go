package sources

import (
	"context"
	"fmt"
	"time"

	"pixiu/internal/models"
)

// StockAdapter fetches daily closing prices for the tracked index from
// the kline endpoint. The endpoint has no incremental API; it returns a
// fixed backward window and the watermark drops rows already ingested.
type StockAdapter struct {
	client  *Client
	baseURL string
	symbol  string
	window  int
}

// NewStockAdapter creates a stock adapter for one index symbol (e.g.
// SH000001) against the given quote host.
func NewStockAdapter(client *Client, baseURL, symbol string) *StockAdapter {
	return &StockAdapter{
		client:  client,
		baseURL: baseURL,
		symbol:  symbol,
		window:  284,
	}
}

// Source implements sync.Adapter.
func (a *StockAdapter) Source() string { return "stock" }

type klineResponse struct {
	Data struct {
		Item [][]*float64 `json:"item"`
	} `json:"data"`
}

// Fetch returns price points newer than the watermark, newest first.
// Kline rows are positional arrays [timestamp, ..., close, ...] and may
// carry nulls on non-trading days; rows that do not parse cleanly are
// dropped rather than half-normalized.
func (a *StockAdapter) Fetch(ctx context.Context, since uint64) ([]models.PricePoint, error) {
	token, err := a.client.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("token acquisition failed: %w", err)
	}

	now := time.Now().UnixMilli()
	url := fmt.Sprintf("%s/v5/stock/chart/kline.json?symbol=%s&begin=%d&period=day&type=before&count=-%d",
		a.baseURL, a.symbol, now, a.window)

	headers := map[string]string{
		"Content-Type": "application/json",
		"Cookie":       token,
	}

	var resp klineResponse
	if err := a.client.GetJSON(ctx, url, headers, &resp); err != nil {
		return nil, err
	}

	var points []models.PricePoint
	for _, row := range resp.Data.Item {
		if len(row) < 6 || row[0] == nil || row[5] == nil {
			continue
		}
		ts := int64(*row[0])
		if uint64(ts) <= since {
			continue
		}
		points = append(points, models.PricePoint{
			Source:    a.Source(),
			Timestamp: ts,
			Price:     *row[5],
		})
	}

	// Kline rows arrive oldest first; adapters return newest first.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}
