package domain

import "time"

// Headline is one economic news item shown alongside open questions. The
// feed is informational only and never feeds into scoring.
type Headline struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	Topic       string    `json:"topic"`
	PublishedAt time.Time `json:"publishedAt"`
}
