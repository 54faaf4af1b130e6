package digest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Notifier pushes a short message through the notification channel.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Mailer delivers the rendered digest document. SMTP composition and
// delivery are a perimeter concern; the core only depends on this
// interface.
type Mailer interface {
	Send(ctx context.Context, subject, html string, attachments []Attachment) error
}

// Attachment is an inline image referenced from the digest HTML.
type Attachment struct {
	Name string
	Data []byte
}

// ChartRenderer renders a line chart for a price series. Rendering is a
// collaborator; when absent the digest simply omits charts.
type ChartRenderer interface {
	RenderLine(title, seriesName string, keys []string, values []float64) ([]byte, error)
}

// HTTPNotifier pushes messages to the personal notification relay:
// GET {base}/{token}/{message}.
type HTTPNotifier struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewHTTPNotifier creates a notifier for the given relay and credential.
func NewHTTPNotifier(baseURL, token string) *HTTPNotifier {
	return &HTTPNotifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		token:   token,
	}
}

// Notify implements Notifier.
func (n *HTTPNotifier) Notify(ctx context.Context, message string) error {
	target := fmt.Sprintf("%s/%s/%s", n.baseURL, n.token, url.PathEscape(message))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify returned status %d", resp.StatusCode)
	}
	return nil
}
