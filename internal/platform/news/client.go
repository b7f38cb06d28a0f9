// Package news is the REST client for the third-party headline API that
// backs the in-app economic news feed.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/forecastlab/econcast/internal/domain"
)

// Client is the REST client for the headline provider.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new headline API client.
//
// baseURL is the provider's API root, e.g. "https://newsapi.org/v2".
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// apiArticle is the provider's wire shape for one article.
type apiArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// apiResponse is the provider's wire envelope.
type apiResponse struct {
	Status   string       `json:"status"`
	Articles []apiArticle `json:"articles"`
}

// GetHeadlines fetches up to limit headlines for a topic query.
func (c *Client) GetHeadlines(ctx context.Context, topic string, limit int) ([]domain.Headline, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("pageSize", strconv.Itoa(limit))
	params.Set("sortBy", "publishedAt")

	body, err := c.doGet(ctx, "/everything?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("news: get headlines %q: %w", topic, err)
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("news: decode headlines: %w", err)
	}
	if resp.Status != "ok" {
		return nil, fmt.Errorf("news: provider status %q", resp.Status)
	}

	headlines := make([]domain.Headline, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		h := domain.Headline{
			Title:  a.Title,
			Source: a.Source.Name,
			URL:    a.URL,
			Topic:  topic,
		}
		if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			h.PublishedAt = ts
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
