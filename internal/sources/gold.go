package sources

import (
	"context"
	"fmt"

	"pixiu/internal/models"
)

// The history endpoint answers with a JSONP-style assignment rather than
// bare JSON; the prefix is stripped before decoding.
const goldJSONPPrefix = "var quote_json = "

// GoldAdapter fetches the domestic gold price history. Like the stock
// source it only offers a fixed backward window; the watermark trims it.
type GoldAdapter struct {
	client   *Client
	baseURL  string
	code     string
	referer  string
	pageSize int
}

// NewGoldAdapter creates a gold adapter for one quote code (e.g.
// JO_52683) against the given quote host.
func NewGoldAdapter(client *Client, baseURL, code, referer string) *GoldAdapter {
	return &GoldAdapter{
		client:   client,
		baseURL:  baseURL,
		code:     code,
		referer:  referer,
		pageSize: 180,
	}
}

// Source implements sync.Adapter.
func (a *GoldAdapter) Source() string { return "gold" }

type goldResponse struct {
	Data map[string][]struct {
		Q1   float64 `json:"q1"`
		Time int64   `json:"time"`
	} `json:"data"`
}

// Fetch returns price points newer than the watermark, newest first.
func (a *GoldAdapter) Fetch(ctx context.Context, since uint64) ([]models.PricePoint, error) {
	url := fmt.Sprintf("%s/quoteCenter/historys.htm?codes=%s&style=3&pageSize=%d",
		a.baseURL, a.code, a.pageSize)
	headers := map[string]string{
		"Referer": a.referer,
	}

	var resp goldResponse
	if err := a.client.GetJSONP(ctx, url, headers, goldJSONPPrefix, &resp); err != nil {
		return nil, err
	}

	var points []models.PricePoint
	for _, quote := range resp.Data[a.code] {
		if uint64(quote.Time) <= since {
			continue
		}
		points = append(points, models.PricePoint{
			Source:    a.Source(),
			Timestamp: quote.Time,
			Price:     quote.Q1,
		})
	}

	// History arrives oldest first; adapters return newest first.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}
