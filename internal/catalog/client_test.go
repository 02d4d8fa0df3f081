package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	var gotKey, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"docs": [
				{"id": 11, "name": "Dark", "year": 2017, "type": "tv-series",
				 "poster": {"url": "https://img.example/dark.jpg"},
				 "seasonsInfo": [
					{"number": 1, "episodesCount": 10},
					{"number": 2, "episodesCount": 8},
					{"number": 0, "episodesCount": 99},
					{"number": 3}
				 ]},
				{"id": 12, "name": "", "alternativeName": "The Wire"},
				{"id": 0, "name": "ghost entry"}
			],
			"page": 1, "limit": 10, "pages": 1, "total": 2
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	page, err := c.Search(context.Background(), "dark", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("X-API-KEY = %q, want test-key", gotKey)
	}
	if gotPath != "/v1.4/movie/search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "dark" {
		t.Errorf("query = %q, want dark", gotQuery)
	}

	if len(page.Items) != 2 {
		t.Fatalf("items = %d, want 2 (id 0 entry dropped)", len(page.Items))
	}

	first := page.Items[0]
	if first.ID != 11 || first.Name != "Dark" {
		t.Errorf("first item = %+v", first)
	}
	// Season 0 is dropped; season 3 counts but declares no episodes, so
	// three seasons with 18 declared episodes remain.
	if first.SeasonsCount == nil || *first.SeasonsCount != 3 {
		t.Errorf("seasonsCount = %v, want 3", first.SeasonsCount)
	}
	if first.EpisodesCount == nil || *first.EpisodesCount != 18 {
		t.Errorf("episodesCount = %v, want 18", first.EpisodesCount)
	}

	second := page.Items[1]
	if second.Name != "The Wire" {
		t.Errorf("alternativeName fallback: name = %q", second.Name)
	}
	if second.SeasonsCount != nil {
		t.Errorf("seasonsCount = %v, want nil for entry without seasons", second.SeasonsCount)
	}
}

func TestSearchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if _, err := c.Search(context.Background(), "dark", 1, 10); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestDetails(t *testing.T) {
	t.Run("series detail", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": 11, "name": "Dark", "year": 2017, "type": "tv-series",
				"poster": {"url": "https://img.example/dark.jpg"},
				"seasonsInfo": [{"number": 1, "episodesCount": 10}]
			}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "k")
		title, err := c.Details(context.Background(), 11)
		if err != nil {
			t.Fatalf("Details: %v", err)
		}
		if gotPath != "/v1.4/movie/11" {
			t.Errorf("path = %q", gotPath)
		}
		if title.ID != 11 || title.Name != "Dark" {
			t.Errorf("title = %+v", title)
		}
		if !title.IsSeries() {
			t.Error("IsSeries = false, want true")
		}
		if len(title.SeasonsInfo) != 1 || title.SeasonsInfo[0].EpisodesCount != 10 {
			t.Errorf("seasonsInfo = %+v", title.SeasonsInfo)
		}
	})

	t.Run("movie is not a series", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id": 5, "name": "Heat", "type": "movie"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "k")
		title, err := c.Details(context.Background(), 5)
		if err != nil {
			t.Fatalf("Details: %v", err)
		}
		if title.IsSeries() {
			t.Error("IsSeries = true, want false")
		}
	})

	t.Run("untyped entry with seasons is a series", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id": 6, "name": "X", "seasonsInfo": [{"number": 1, "episodesCount": 3}]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "k")
		title, err := c.Details(context.Background(), 6)
		if err != nil {
			t.Fatalf("Details: %v", err)
		}
		if !title.IsSeries() {
			t.Error("IsSeries = false, want true")
		}
	})

	t.Run("not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "k")
		if _, err := c.Details(context.Background(), 404); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "k")
		_, err := c.Details(context.Background(), 1)
		if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrRateLimited) {
			t.Fatalf("err = %v, want generic upstream error", err)
		}
	})
}
