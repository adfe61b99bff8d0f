// Package hn fetches stories from the Hacker News Firebase API and
// normalizes them into posts for topic aggregation.
//
// API reference: https://github.com/HackerNews/API
package hn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openpulse/pulse/internal/topics"
)

// DefaultBaseURL is the HN Firebase API root.
const DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"

// DefaultFetchLimit bounds how many top stories a capture pulls.
const DefaultFetchLimit = 100

const itemURLPrefix = "https://news.ycombinator.com/item?id="

// Client is a batch (not streaming) HN API client.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (tests point this at a local server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient returns a client with a 30s request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type item struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	By          string `json:"by"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	Deleted     bool   `json:"deleted"`
	Dead        bool   `json:"dead"`
}

// TopStories fetches up to limit current top stories, skipping deleted,
// dead, and non-story items. Individual item fetch failures are skipped
// rather than failing the whole capture; only the story-id listing is
// load-bearing.
func (c *Client) TopStories(ctx context.Context, limit int) ([]topics.Post, error) {
	if limit <= 0 {
		limit = DefaultFetchLimit
	}

	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("fetching top story ids: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	posts := make([]topics.Post, 0, len(ids))
	for _, id := range ids {
		var it item
		if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &it); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if it.Deleted || it.Dead || it.Type != "story" {
			continue
		}

		post := topics.Post{
			ID:       fmt.Sprintf("%d", it.ID),
			Title:    it.Title,
			Body:     it.Text, // only present for Ask HN / Show HN
			Author:   it.By,
			URL:      it.URL,
			Score:    it.Score,
			Comments: it.Descendants,
		}
		if it.Time > 0 {
			post.PostedAt = time.Unix(it.Time, 0).UTC()
		}
		posts = append(posts, post)
	}

	return posts, nil
}

// ItemURL returns the HN discussion URL for a story id.
func ItemURL(id string) string { return itemURLPrefix + id }

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
