package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
	"golang.org/x/time/rate"
)

// PushshiftLimit is the hard per-request result cap of the search API.
const PushshiftLimit = 100

const pushshiftBaseURL = "https://api.pushshift.io/reddit/submission/search/"

// FetchError wraps any HTTP or payload failure from the search index.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PushshiftClient queries the Pushshift submission index. Every call
// waits on the limiter first; a failed request is retried once after a
// long backoff before the error propagates.
type PushshiftClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	baseURL    string
	backoff    time.Duration
}

func NewPushshiftClient(userAgent string) *PushshiftClient {
	return &PushshiftClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// Pushshift is far stricter than Reddit proper: 1 req / 2s.
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		userAgent: userAgent,
		baseURL:   pushshiftBaseURL,
		backoff:   5 * time.Minute,
	}
}

type pushshiftResponse struct {
	Data []struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Author      string  `json:"author"`
		Subreddit   string  `json:"subreddit"`
		Selftext    string  `json:"selftext"`
		URL         string  `json:"url"`
		Score       int     `json:"score"`
		NumComments int     `json:"num_comments"`
		CreatedUTC  float64 `json:"created_utc"`
		RetrievedOn float64 `json:"retrieved_on"`
	} `json:"data"`
	Metadata struct {
		TotalResults int `json:"total_results"`
	} `json:"metadata"`
}

// Search returns up to limit records created strictly after `after` and
// before `before`, in ascending time order.
func (pc *PushshiftClient) Search(ctx context.Context, subreddit string, after, before time.Time, limit int) ([]domain.Record, error) {
	q := url.Values{}
	q.Set("subreddit", subreddit)
	q.Set("after", strconv.FormatInt(after.Unix(), 10))
	q.Set("before", strconv.FormatInt(before.Unix(), 10))
	q.Set("size", strconv.Itoa(limit))
	q.Set("sort", "asc")

	resp, err := pc.getJSON(ctx, pc.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for _, d := range resp.Data {
		records = append(records, domain.Record{
			ID:          d.ID,
			Title:       d.Title,
			Author:      d.Author,
			Subreddit:   d.Subreddit,
			Selftext:    d.Selftext,
			URL:         d.URL,
			Score:       d.Score,
			NumComments: d.NumComments,
			CreatedUTC:  int64(d.CreatedUTC),
			RetrievedOn: int64(d.RetrievedOn),
		})
	}
	return records, nil
}

// TotalCount issues a metadata-only query (size=0) and returns the
// reported population total for the range.
func (pc *PushshiftClient) TotalCount(ctx context.Context, subreddit string, after, before time.Time) (int, error) {
	q := url.Values{}
	q.Set("subreddit", subreddit)
	q.Set("after", strconv.FormatInt(after.Unix(), 10))
	q.Set("before", strconv.FormatInt(before.Unix(), 10))
	q.Set("size", "0")
	q.Set("metadata", "true")

	resp, err := pc.getJSON(ctx, pc.baseURL+"?"+q.Encode())
	if err != nil {
		return 0, err
	}
	return resp.Metadata.TotalResults, nil
}

func (pc *PushshiftClient) getJSON(ctx context.Context, u string) (*pushshiftResponse, error) {
	resp, err := pc.doOnce(ctx, u)
	if err != nil {
		slog.Warn("pushshift request failed, backing off before retry",
			"err", err, "backoff", pc.backoff.String())
		timer := time.NewTimer(pc.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &FetchError{URL: u, Err: ctx.Err()}
		case <-timer.C:
		}
		resp, err = pc.doOnce(ctx, u)
		if err != nil {
			return nil, &FetchError{URL: u, Err: err}
		}
	}
	return resp, nil
}

func (pc *PushshiftClient) doOnce(ctx context.Context, u string) (*pushshiftResponse, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", pc.userAgent)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pushshift status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("pushshift content is not JSON: %q", ct)
	}

	var parsed pushshiftResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &parsed, nil
}
