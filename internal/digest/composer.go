// Package digest composes the daily document from accumulated sync data
// and the digest-time sources, and hands it to the delivery collaborators.
package digest

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"pixiu/internal/models"
	"pixiu/internal/sources"
)

// NewsReader supplies the news window. Implemented by services.NewsService.
type NewsReader interface {
	Recent(ctx context.Context, since int64) ([]models.NewsItem, error)
}

// PriceReader supplies price series. Implemented by services.PriceService.
type PriceReader interface {
	Series(ctx context.Context, source string, limit int) ([]models.PricePoint, error)
}

// DailyFetcher supplies the digest-time one-shot values.
type DailyFetcher interface {
	DailyQuestion(ctx context.Context) (sources.DailyQuestion, error)
}

// SayingFetcher supplies the daily saying.
type SayingFetcher interface {
	Daily(ctx context.Context) (string, error)
}

// Composer builds the daily digest. Every section is best-effort: a
// failing source leaves its section out rather than blocking the digest.
type Composer struct {
	news     NewsReader
	prices   PriceReader
	leetcode DailyFetcher
	saying   SayingFetcher
	weather  sources.WeatherProvider
	charts   ChartRenderer
	location *time.Location
	logger   *slog.Logger
}

// NewComposer creates a digest composer. weather and charts may be nil;
// their sections are skipped.
func NewComposer(
	news NewsReader,
	prices PriceReader,
	leetcode DailyFetcher,
	saying SayingFetcher,
	weather sources.WeatherProvider,
	charts ChartRenderer,
	location *time.Location,
) *Composer {
	return &Composer{
		news:     news,
		prices:   prices,
		leetcode: leetcode,
		saying:   saying,
		weather:  weather,
		charts:   charts,
		location: location,
		logger:   slog.With("component", "digest"),
	}
}

// Document is a composed digest ready for delivery.
type Document struct {
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Compose builds today's digest from stored data and the digest-time
// sources. newChapters are the comic chapters found by the latest comic
// sync cycle.
func (c *Composer) Compose(ctx context.Context, newChapters []models.Chapter) (*Document, error) {
	now := time.Now().In(c.location)
	var sb strings.Builder

	sb.WriteString("<h2>Daily Digest " + now.Format("2006-01-02") + "</h2>")

	if saying, err := c.saying.Daily(ctx); err != nil {
		c.logger.Warn("saying unavailable", "error", err)
	} else {
		sb.WriteString("<p>" + saying + "</p>")
	}

	if question, err := c.leetcode.DailyQuestion(ctx); err != nil {
		c.logger.Warn("daily question unavailable", "error", err)
	} else {
		sb.WriteString(fmt.Sprintf(`<p>Daily question: <a href="%s">%s</a></p>`,
			html.EscapeString(question.Link), html.EscapeString(question.Name)))
	}

	if c.weather != nil {
		if forecast, err := c.weather.Forecast(ctx); err != nil {
			c.logger.Warn("forecast unavailable", "error", err)
		} else if len(forecast) > 0 {
			sb.WriteString("<h3>Weather</h3><ul>")
			for _, day := range forecast {
				sb.WriteString("<li>" + html.EscapeString(day) + "</li>")
			}
			sb.WriteString("</ul>")
		}
	}

	if len(newChapters) > 0 {
		sb.WriteString("<h3>New Chapters</h3><ul>")
		for _, ch := range newChapters {
			sb.WriteString(fmt.Sprintf(`<li><a href="%s">%s %s</a></li>`,
				html.EscapeString(ch.Link), html.EscapeString(ch.Name), html.EscapeString(ch.Chapter)))
		}
		sb.WriteString("</ul>")
	}

	c.writeNews(ctx, &sb, now)

	doc := &Document{
		Subject: "Daily Digest " + now.Format("2006-01-02"),
	}
	doc.Attachments = c.renderCharts(ctx, &sb)
	doc.HTML = sb.String()

	return doc, nil
}

func (c *Composer) writeNews(ctx context.Context, sb *strings.Builder, now time.Time) {
	since := now.UnixMilli() - 24*time.Hour.Milliseconds()
	items, err := c.news.Recent(ctx, since)
	if err != nil {
		c.logger.Warn("news window unavailable", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	sb.WriteString("<h3>News</h3><ul>")
	for _, item := range items {
		at := time.UnixMilli(item.Timestamp).In(c.location).Format("01-02 15:04")
		sb.WriteString("<li>" + at + " " + html.EscapeString(item.Content) + "</li>")
	}
	sb.WriteString("</ul>")
}

// renderCharts renders the price series into inline chart images. Without
// a renderer, the series are skipped entirely.
func (c *Composer) renderCharts(ctx context.Context, sb *strings.Builder) []Attachment {
	if c.charts == nil {
		return nil
	}

	var attachments []Attachment
	for _, chart := range []struct {
		source, title, file string
	}{
		{"stock", "Index Info", "stock_line.png"},
		{"gold", "Gold Info", "gold_line.png"},
	} {
		points, err := c.prices.Series(ctx, chart.source, 365)
		if err != nil || len(points) == 0 {
			continue
		}

		keys := make([]string, 0, len(points))
		values := make([]float64, 0, len(points))
		for _, p := range points {
			keys = append(keys, time.UnixMilli(p.Timestamp).In(c.location).Format("01-02"))
			values = append(values, p.Price)
		}

		png, err := c.charts.RenderLine(chart.title, "RMB", keys, values)
		if err != nil {
			c.logger.Warn("chart render failed", "source", chart.source, "error", err)
			continue
		}

		attachments = append(attachments, Attachment{Name: chart.file, Data: png})
		sb.WriteString(fmt.Sprintf(`<p><img src="cid:%s"></p>`, chart.file))
	}

	return attachments
}
