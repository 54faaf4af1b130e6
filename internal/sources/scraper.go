package sources

import (
	"context"
	"fmt"
	"net/url"
)

// ScraperService talks to the out-of-process scraper that renders the
// DOM-heavy pages (comic listings, weather forecast) behind a plain JSON
// API. It implements both ChapterLister and WeatherProvider; the server
// wires it in when SCRAPER_URL is configured and runs without those
// sections otherwise.
type ScraperService struct {
	client  *Client
	baseURL string
}

// NewScraperService creates a scraper client against the given base URL.
func NewScraperService(client *Client, baseURL string) *ScraperService {
	return &ScraperService{client: client, baseURL: baseURL}
}

// Chapters implements ChapterLister.
func (s *ScraperService) Chapters(ctx context.Context, comicID string) ([]ChapterRef, error) {
	var resp struct {
		Chapters []struct {
			Chapter string `json:"chapter"`
			Link    string `json:"link"`
		} `json:"chapters"`
	}

	endpoint := fmt.Sprintf("%s/comics/%s/chapters", s.baseURL, url.PathEscape(comicID))
	if err := s.client.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("chapter listing failed for %s: %w", comicID, err)
	}

	refs := make([]ChapterRef, 0, len(resp.Chapters))
	for _, ch := range resp.Chapters {
		refs = append(refs, ChapterRef{Chapter: ch.Chapter, Link: ch.Link})
	}
	return refs, nil
}

// Forecast implements WeatherProvider.
func (s *ScraperService) Forecast(ctx context.Context) ([]string, error) {
	var resp struct {
		Days []string `json:"days"`
	}

	if err := s.client.GetJSON(ctx, s.baseURL+"/weather", nil, &resp); err != nil {
		return nil, fmt.Errorf("forecast fetch failed: %w", err)
	}
	return resp.Days, nil
}
