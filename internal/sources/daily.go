package sources

import (
	"context"
	"fmt"
)

// Digest-time sources. These are fetched fresh when the digest is
// composed rather than synced incrementally: there is exactly one value
// per day and nothing to watermark.

// DailyQuestion is the day's coding question.
type DailyQuestion struct {
	Name string
	Link string
}

// LeetCodeAdapter fetches the daily question over GraphQL.
type LeetCodeAdapter struct {
	client  *Client
	baseURL string
}

// NewLeetCodeAdapter creates an adapter against the given GraphQL host.
func NewLeetCodeAdapter(client *Client, baseURL string) *LeetCodeAdapter {
	return &LeetCodeAdapter{client: client, baseURL: baseURL}
}

const calendarQuery = `{"query":"\n    query CalendarTaskSchedule($days: Int!) {\n  calendarTaskSchedule(days: $days) {\n    contests {\n      id\n      name\n      slug\n      progress\n      link\n      premiumOnly\n    }\n    dailyQuestions {\n      id\n      name\n      slug\n      progress\n      link\n      premiumOnly\n    }\n    studyPlans {\n      id\n      name\n      slug\n      progress\n      link\n      premiumOnly\n    }\n  }\n}\n    ","variables":{"days":0},"operationName":"CalendarTaskSchedule"}`

// DailyQuestion returns today's question name and link.
func (a *LeetCodeAdapter) DailyQuestion(ctx context.Context) (DailyQuestion, error) {
	var resp struct {
		Data struct {
			CalendarTaskSchedule struct {
				DailyQuestions []struct {
					Name string `json:"name"`
					Link string `json:"link"`
				} `json:"dailyQuestions"`
			} `json:"calendarTaskSchedule"`
		} `json:"data"`
	}

	if err := a.client.PostJSON(ctx, a.baseURL+"/graphql/", calendarQuery, &resp); err != nil {
		return DailyQuestion{}, err
	}

	questions := resp.Data.CalendarTaskSchedule.DailyQuestions
	if len(questions) == 0 {
		return DailyQuestion{}, fmt.Errorf("no daily question in response")
	}

	return DailyQuestion{Name: questions[0].Name, Link: questions[0].Link}, nil
}

// SayingAdapter fetches the daily saying (sentence plus translation note).
type SayingAdapter struct {
	client  *Client
	baseURL string
}

// NewSayingAdapter creates an adapter against the given API host.
func NewSayingAdapter(client *Client, baseURL string) *SayingAdapter {
	return &SayingAdapter{client: client, baseURL: baseURL}
}

// Daily returns the day's saying as an HTML fragment.
func (a *SayingAdapter) Daily(ctx context.Context) (string, error) {
	var resp struct {
		Content string `json:"content"`
		Note    string `json:"note"`
	}

	if err := a.client.GetJSON(ctx, a.baseURL+"/dsapi/", nil, &resp); err != nil {
		return "", err
	}

	return resp.Content + "<br>" + resp.Note, nil
}

// WeatherProvider is the forecast collaborator. The forecast page is
// HTML scraped; a concrete implementation lives at the perimeter.
type WeatherProvider interface {
	Forecast(ctx context.Context) ([]string, error)
}

// ChapterLister is the comic listing collaborator. Chapter pages are HTML
// scraped behind anti-bot measures; a concrete implementation lives at
// the perimeter. Chapters are returned newest first.
type ChapterLister interface {
	Chapters(ctx context.Context, comicID string) ([]ChapterRef, error)
}

// ChapterRef is one listed chapter.
type ChapterRef struct {
	Chapter string
	Link    string
}
