package sampling

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// Collector gathers records over a time range, either linearly from the
// start or at sampled offsets across it.
type Collector struct {
	index     domain.SearchIndex
	sampler   *OffsetSampler
	pageLimit int
}

func NewCollector(index domain.SearchIndex, sampler *OffsetSampler, pageLimit int) *Collector {
	return &Collector{index: index, sampler: sampler, pageLimit: pageLimit}
}

// Result is one completed collection pass. Duplicates counts records
// that were dropped because their ID had already been seen; a nonzero
// count is diagnostic, not an error.
type Result struct {
	Records    []domain.Record
	Duplicates int
}

func (c *Collector) Collect(ctx context.Context, spec domain.SampleSpec) (*Result, error) {
	if err := spec.Range.Validate(); err != nil {
		return nil, err
	}
	if spec.Count <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", spec.Count)
	}

	switch spec.Mode {
	case domain.FirstN:
		return c.collectFirstN(ctx, spec)
	case domain.Sampled:
		return c.collectSampled(ctx, spec)
	default:
		return nil, fmt.Errorf("unknown collection mode %v", spec.Mode)
	}
}

// collectFirstN walks the range with a monotonic cursor: each page's
// last timestamp becomes the next query's exclusive lower bound. Stops
// at an empty page (range exhausted) or once Count records are held.
func (c *Collector) collectFirstN(ctx context.Context, spec domain.SampleSpec) (*Result, error) {
	cursor := spec.Range.After
	var records []domain.Record

	for len(records) < spec.Count {
		page, err := c.index.Search(ctx, spec.Subreddit, cursor, spec.Range.Before, c.pageLimit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			slog.Info("range exhausted before target count",
				"sub", spec.Subreddit, "collected", len(records), "wanted", spec.Count)
			break
		}
		// The index promises records strictly after the anchor in
		// non-decreasing order; a page reaching back to or before the
		// cursor would corrupt the walk, so fail fast.
		if page[0].CreatedUTC <= cursor.Unix() {
			return nil, fmt.Errorf("page out of order: first record %d not after cursor %d",
				page[0].CreatedUTC, cursor.Unix())
		}
		records = append(records, page...)
		cursor = time.Unix(page[len(page)-1].CreatedUTC, 0).UTC()
	}

	if len(records) > spec.Count {
		records = records[:spec.Count]
	}
	return dedupe(records), nil
}

// collectSampled takes exactly one page at each sampled offset. Reads
// never advance within an offset: the offset spacing already guarantees
// a full page fits before the next one starts.
func (c *Collector) collectSampled(ctx context.Context, spec domain.SampleSpec) (*Result, error) {
	anchors, err := c.sampler.ComputeOffsets(ctx, spec.Subreddit, spec.Range, spec.Count, c.pageLimit)
	if err != nil {
		return nil, err
	}

	var records []domain.Record
	for _, anchor := range anchors {
		page, err := c.index.Search(ctx, spec.Subreddit, anchor, spec.Range.Before, c.pageLimit)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}

	if len(records) > spec.Count {
		records = downsample(records, spec.Count)
	}
	return dedupe(records), nil
}

// downsample keeps exactly want records at evenly spaced indices,
// preserving the original order. Even spacing keeps the retained subset
// temporally representative instead of clustering at one end.
func downsample(records []domain.Record, want int) []domain.Record {
	kept := make([]domain.Record, want)
	for i := 0; i < want; i++ {
		kept[i] = records[i*len(records)/want]
	}
	return kept
}

// dedupe drops repeated IDs, keeping the first occurrence. Repeats mean
// an offset or ordering violation upstream; they are counted and logged
// but do not void the sample.
func dedupe(records []domain.Record) *Result {
	seen := make(map[string]struct{}, len(records))
	kept := records[:0]
	dups := 0
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			dups++
			continue
		}
		seen[r.ID] = struct{}{}
		kept = append(kept, r)
	}
	if dups > 0 {
		slog.Warn("duplicate records in collected sample", "count", dups)
	}
	return &Result{Records: kept, Duplicates: dups}
}
