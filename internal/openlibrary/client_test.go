package openlibrary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func searchBody(docs []Doc) []byte {
	body, _ := json.Marshal(searchResponse{Docs: docs})
	return body
}

func newTestClient(url string) *Client {
	c := NewClient(url)
	c.backoff = time.Millisecond
	return c
}

func TestSearchParsesResponse(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("expected User-Agent %q, got %q", userAgent, ua)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"title":  q.Get("title"),
			"author": q.Get("author"),
			"fields": q.Get("fields"),
			"limit":  q.Get("limit"),
		}
		w.Write(searchBody([]Doc{
			{Title: "1984", AuthorName: []string{"George Orwell"}, ISBN: []string{"0451524934"}},
		}))
	}))
	defer srv.Close()

	docs, err := newTestClient(srv.URL).Search(context.Background(), "1984", "George Orwell")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0].Title != "1984" || docs[0].PrimaryAuthor() != "George Orwell" {
		t.Errorf("unexpected doc %+v", docs[0])
	}
	if gotQuery["title"] != "1984" || gotQuery["author"] != "George Orwell" {
		t.Errorf("unexpected query %+v", gotQuery)
	}
	if gotQuery["fields"] != "title,author_name,isbn" || gotQuery["limit"] != "5" {
		t.Errorf("unexpected fields/limit %+v", gotQuery)
	}
}

func TestSearchRetriesOnServerError(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(searchBody([]Doc{{Title: "Dune"}}))
	}))
	defer srv.Close()

	docs, err := newTestClient(srv.URL).Search(context.Background(), "Dune", "")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
	if len(docs) != 1 {
		t.Errorf("expected 1 doc, got %d", len(docs))
	}
}

func TestSearchFailsAfterRetries(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Search(context.Background(), "Dune", ""); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if requests != maxAttempts {
		t.Errorf("expected %d requests, got %d", maxAttempts, requests)
	}
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Search(context.Background(), "Dune", ""); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if requests != 1 {
		t.Errorf("expected 1 request, got %d", requests)
	}
}

func TestSearchCachesResults(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write(searchBody([]Doc{{Title: "Dune", AuthorName: []string{"Frank Herbert"}}}))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := client.Search(context.Background(), "Dune", "Frank Herbert"); err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
	}
	if requests != 1 {
		t.Errorf("expected 1 upstream request for repeated searches, got %d", requests)
	}

	// A different author is a different cache key.
	if _, err := client.Search(context.Background(), "Dune", ""); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 upstream requests, got %d", requests)
	}
}

func TestDocHelpers(t *testing.T) {
	tests := []struct {
		name       string
		doc        Doc
		wantTitle  string
		wantAuthor string
		wantISBN   *string
	}{
		{
			name:       "fully populated",
			doc:        Doc{Title: "1984", AuthorName: []string{"George Orwell", "Someone Else"}, ISBN: []string{"0451524934", "9780451524935"}},
			wantTitle:  "1984",
			wantAuthor: "George Orwell",
			wantISBN:   strPtr("0451524934"),
		},
		{
			name:       "all fields missing",
			doc:        Doc{},
			wantTitle:  "Unknown",
			wantAuthor: "Unknown",
			wantISBN:   nil,
		},
		{
			name:       "empty author entry",
			doc:        Doc{Title: "Beowulf", AuthorName: []string{""}},
			wantTitle:  "Beowulf",
			wantAuthor: "Unknown",
			wantISBN:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.DisplayTitle(); got != tt.wantTitle {
				t.Errorf("DisplayTitle = %q, want %q", got, tt.wantTitle)
			}
			if got := tt.doc.PrimaryAuthor(); got != tt.wantAuthor {
				t.Errorf("PrimaryAuthor = %q, want %q", got, tt.wantAuthor)
			}
			got := tt.doc.PrimaryISBN()
			switch {
			case got == nil && tt.wantISBN != nil:
				t.Errorf("PrimaryISBN = nil, want %q", *tt.wantISBN)
			case got != nil && tt.wantISBN == nil:
				t.Errorf("PrimaryISBN = %q, want nil", *got)
			case got != nil && tt.wantISBN != nil && *got != *tt.wantISBN:
				t.Errorf("PrimaryISBN = %q, want %q", *got, *tt.wantISBN)
			}
		})
	}
}

func strPtr(s string) *string { return &s }
