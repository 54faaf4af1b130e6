package sources

import (
	"context"
	"fmt"

	"pixiu/internal/models"
)

// NewsAdapter fetches the live news feed. The feed pages backward from
// the newest item via max_id; item ids are monotonically increasing.
type NewsAdapter struct {
	client  *Client
	baseURL string
	referer string
}

// NewNewsAdapter creates a news adapter against the given feed base URL
// (e.g. https://xueqiu.com).
func NewNewsAdapter(client *Client, baseURL string) *NewsAdapter {
	return &NewsAdapter{
		client:  client,
		baseURL: baseURL,
		referer: baseURL + "/",
	}
}

// Source implements sync.Adapter.
func (a *NewsAdapter) Source() string { return "news" }

type newsResponse struct {
	NextMaxID uint64 `json:"next_max_id"`
	Items     []struct {
		ID        uint64 `json:"id"`
		Text      string `json:"text"`
		CreatedAt int64  `json:"created_at"`
		Target    string `json:"target"`
	} `json:"items"`
}

// Fetch pages backward from the newest item until it sees a page whose
// first item is at or below the watermark, or the feed is exhausted. A
// feed with nothing new returns empty after one page. Items at or below
// the watermark are dropped from the result; everything else is returned
// newest first.
func (a *NewsAdapter) Fetch(ctx context.Context, since uint64) ([]models.NewsItem, error) {
	token, err := a.client.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("token acquisition failed: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Cookie":       token,
		"Referer":      a.referer,
	}

	var items []models.NewsItem
	var maxID uint64

	for {
		url := fmt.Sprintf("%s/statuses/livenews/list.json?count=15&max_id=%d", a.baseURL, maxID)

		var resp newsResponse
		if err := a.client.GetJSON(ctx, url, headers, &resp); err != nil {
			return nil, err
		}

		if len(resp.Items) == 0 || resp.Items[0].ID <= since {
			break
		}
		maxID = resp.NextMaxID

		for _, item := range resp.Items {
			if item.ID <= since {
				continue
			}
			items = append(items, models.NewsItem{
				ID:        item.ID,
				Content:   item.Text,
				Timestamp: item.CreatedAt,
				Target:    item.Target,
			})
		}
	}

	return items, nil
}
