package hn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, stories map[int64]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		ids := make([]int64, 0, len(stories))
		for id := range stories {
			ids = append(ids, id)
		}
		// Deterministic listing for assertions
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				if ids[j] < ids[i] {
					ids[i], ids[j] = ids[j], ids[i]
				}
			}
		}
		fmt.Fprint(w, "[")
		for i, id := range ids {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%d", id)
		}
		fmt.Fprint(w, "]")
	})
	for id, body := range stories {
		mux.HandleFunc(fmt.Sprintf("/item/%d.json", id), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, body)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTopStories(t *testing.T) {
	srv := newTestServer(t, map[int64]string{
		1: `{"id": 1, "type": "story", "by": "alice", "title": "Rust 2.0", "time": 1700000000}`,
		2: `{"id": 2, "type": "story", "by": "bob", "title": "Ask HN: Python?", "text": "which framework", "time": 1700000100}`,
		3: `{"id": 3, "type": "comment", "by": "carol", "text": "nice"}`,
		4: `{"id": 4, "type": "story", "deleted": true}`,
		5: `{"id": 5, "type": "story", "dead": true}`,
	})

	c := NewClient(WithBaseURL(srv.URL))
	posts, err := c.TopStories(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopStories: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts after filtering, got %d", len(posts))
	}
	if posts[0].ID != "1" || posts[0].Author != "alice" || posts[0].Title != "Rust 2.0" {
		t.Fatalf("Unexpected first post: %+v", posts[0])
	}
	if posts[0].PostedAt.IsZero() {
		t.Fatalf("Expected PostedAt set from item time")
	}
	if posts[1].Body != "which framework" {
		t.Fatalf("Expected Ask HN text carried as body, got %q", posts[1].Body)
	}
}

func TestTopStoriesLimit(t *testing.T) {
	srv := newTestServer(t, map[int64]string{
		1: `{"id": 1, "type": "story", "by": "a", "title": "one"}`,
		2: `{"id": 2, "type": "story", "by": "b", "title": "two"}`,
		3: `{"id": 3, "type": "story", "by": "c", "title": "three"}`,
	})

	c := NewClient(WithBaseURL(srv.URL))
	posts, err := c.TopStories(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopStories: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Expected limit 2 respected, got %d posts", len(posts))
	}
}

func TestTopStoriesSkipsFailedItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[1,2]")
	})
	mux.HandleFunc("/item/1.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/item/2.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 2, "type": "story", "by": "b", "title": "survives"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(WithBaseURL(srv.URL))
	posts, err := c.TopStories(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopStories: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "survives" {
		t.Fatalf("Expected the healthy item only, got %+v", posts)
	}
}

func TestTopStoriesListingFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.TopStories(context.Background(), 10); err == nil {
		t.Fatalf("Expected error when the listing fails")
	}
}

func TestItemURL(t *testing.T) {
	if got := ItemURL("42"); got != "https://news.ycombinator.com/item?id=42" {
		t.Fatalf("ItemURL = %q", got)
	}
}
