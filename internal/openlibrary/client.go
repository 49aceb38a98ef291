// Package openlibrary talks to the OpenLibrary search API, the external
// bibliographic collaborator used to resolve titles into concrete books.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultBaseURL = "https://openlibrary.org"
	userAgent      = "Library App (chrisgo@bu.edu)"

	// searchLimit caps how many candidates a single lookup may return.
	searchLimit = 5

	maxAttempts   = 3
	backoffFactor = 1 * time.Second

	cacheSize = 256
	cacheTTL  = time.Hour
)

// Doc is one candidate record from an OpenLibrary search.
type Doc struct {
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	ISBN       []string `json:"isbn"`
}

// DisplayTitle returns the candidate's title, or "Unknown" when missing.
func (d Doc) DisplayTitle() string {
	if d.Title == "" {
		return "Unknown"
	}
	return d.Title
}

// PrimaryAuthor returns the first listed author, or "Unknown" when missing.
func (d Doc) PrimaryAuthor() string {
	if len(d.AuthorName) == 0 || d.AuthorName[0] == "" {
		return "Unknown"
	}
	return d.AuthorName[0]
}

// PrimaryISBN returns the first listed ISBN, or nil when the candidate
// carries none.
func (d Doc) PrimaryISBN() *string {
	if len(d.ISBN) == 0 {
		return nil
	}
	isbn := d.ISBN[0]
	return &isbn
}

// Searcher is the capability the reconciliation engine needs from the
// bibliographic provider. Tests substitute deterministic doubles.
type Searcher interface {
	Search(ctx context.Context, title, author string) ([]Doc, error)
}

type searchResponse struct {
	Docs []Doc `json:"docs"`
}

// Client queries OpenLibrary over HTTP with a bounded timeout, retries
// transient upstream failures with linear backoff, and caches responses for
// an hour so repeated lookups of the same title stay off the network.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, []Doc]
	backoff    time.Duration
}

// NewClient returns a Client for the given base URL. An empty baseURL
// selects the public OpenLibrary endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      expirable.NewLRU[string, []Doc](cacheSize, nil, cacheTTL),
		backoff:    backoffFactor,
	}
}

// Search looks up candidates for a title, optionally narrowed by author.
// Responses with status 429 or 5xx are retried up to maxAttempts times.
func (c *Client) Search(ctx context.Context, title, author string) ([]Doc, error) {
	key := title + "\x1f" + author
	if docs, ok := c.cache.Get(key); ok {
		return docs, nil
	}

	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	params.Set("fields", "title,author_name,isbn")
	params.Set("limit", fmt.Sprintf("%d", searchLimit))
	endpoint := c.baseURL + "/search.json?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		docs, retryable, err := c.fetch(ctx, endpoint)
		if err == nil {
			c.cache.Add(key, docs)
			return docs, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) fetch(ctx context.Context, endpoint string) (docs []Doc, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("openlibrary: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("openlibrary: unexpected status %d", resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("openlibrary: unexpected status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, fmt.Errorf("openlibrary: decode response: %w", err)
	}
	return out.Docs, false, nil
}
