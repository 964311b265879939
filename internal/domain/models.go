package domain

import (
	"context"
	"fmt"
	"time"
)

// Record is one submission as the historical index saw it. The sampling
// core only reads ID and CreatedUTC; the remaining fields ride along for
// the deletion cross-check and CSV export.
type Record struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Subreddit   string `json:"subreddit"`
	Selftext    string `json:"selftext,omitempty"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	CreatedUTC  int64  `json:"created_utc"`
	RetrievedOn int64  `json:"retrieved_on"`
}

// AuthorDeleted reports whether the author was already gone when the
// index captured the submission.
func (r Record) AuthorDeleted() bool {
	return r.Author == "" || r.Author == "[deleted]"
}

// TextDeleted reports whether the body was already deleted at index time.
func (r Record) TextDeleted() bool {
	return r.Selftext == "[deleted]"
}

// TimeRange is the half-open interval [After, Before).
type TimeRange struct {
	After  time.Time
	Before time.Time
}

func (tr TimeRange) Validate() error {
	if !tr.After.Before(tr.Before) {
		return fmt.Errorf("invalid range: after %s must precede before %s",
			tr.After.Format(time.RFC3339), tr.Before.Format(time.RFC3339))
	}
	return nil
}

// DurationHours returns the number of whole hours the range spans.
// Offsets are hour-granular, so this is the size of the sampling space;
// a sub-hour range spans zero and cannot be sampled.
func (tr TimeRange) DurationHours() int {
	return int(tr.Before.Sub(tr.After) / time.Hour)
}

// Mode selects the collection strategy.
type Mode int

const (
	// FirstN walks the range linearly from After and keeps the first N.
	FirstN Mode = iota
	// Sampled pulls one page at each of a set of non-overlapping offsets
	// spread across the range.
	Sampled
)

func (m Mode) String() string {
	switch m {
	case FirstN:
		return "first_n"
	case Sampled:
		return "sampled"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// SampleSpec describes one collection request.
type SampleSpec struct {
	Subreddit string
	Range     TimeRange
	Count     int
	Mode      Mode
}

// Query is a named SampleSpec, as loaded from a targets CSV.
type Query struct {
	Name string
	Spec SampleSpec
}

// SearchIndex is the paginated historical submission index.
//
// Search returns at most limit records with CreatedUTC strictly greater
// than after and less than before, in non-decreasing time order. The
// exclusive lower bound is what lets the linear walk advance its cursor
// to the last record's timestamp without refetching it.
type SearchIndex interface {
	Search(ctx context.Context, subreddit string, after, before time.Time, limit int) ([]Record, error)
	TotalCount(ctx context.Context, subreddit string, after, before time.Time) (int, error)
}

// Status is a submission's current state on Reddit.
type Status struct {
	ID            string
	Author        string
	AuthorDeleted bool
	TextDeleted   bool
	TextRemoved   bool
}

// StatusSource resolves current statuses for a batch of submission IDs.
// IDs missing from the returned map could not be resolved.
type StatusSource interface {
	Statuses(ctx context.Context, ids []string) (map[string]Status, error)
}

// CheckedRecord pairs an indexed record with its live status for export.
type CheckedRecord struct {
	Record       Record
	AuthorNow    string
	DelAuthorNow bool
	DelTextNow   bool
	RemTextNow   bool
	// ElapsedHours is how long after creation the index captured the
	// submission, when the index reported a retrieval time.
	ElapsedHours int
}
