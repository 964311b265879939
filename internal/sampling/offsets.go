// Package sampling pulls a bounded sample of records from a paginated
// search index that has no cursor support and a hard per-request cap.
// Offsets into the time range are drawn at hour granularity and spaced
// so that two full-page reads cannot return the same record, assuming
// uniform density over the range.
package sampling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// seedAttempts bounds how many seeded draws are tried before giving up.
const seedAttempts = 300

// ErrDegenerateRange means the range rounds to zero whole hours, too
// short to place hour-granular offsets in.
var ErrDegenerateRange = errors.New("time range shorter than one hour")

// ExhaustedError means no non-overlapping offset draw was found within
// the attempt budget; any draw would risk duplicate records.
type ExhaustedError struct {
	Attempts       int
	QueriesNeeded  int
	DurationHours  int
	ResultsPerHour int
	GapHours       int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf(
		"exhausted %d offset draws: %d queries over %dh at %d results/hour need gaps over %dh",
		e.Attempts, e.QueriesNeeded, e.DurationHours, e.ResultsPerHour, e.GapHours)
}

// TotalCounter reports the population total for a subreddit time range.
// *collector.Oracle satisfies it.
type TotalCounter interface {
	TotalCount(ctx context.Context, subreddit string, after, before time.Time) (int, error)
}

// OffsetSampler computes non-overlapping sample offsets within a range.
type OffsetSampler struct {
	oracle   TotalCounter
	attempts int
}

func NewOffsetSampler(oracle TotalCounter) *OffsetSampler {
	return &OffsetSampler{oracle: oracle, attempts: seedAttempts}
}

// ComputeOffsets returns absolute timestamps at which to anchor one
// full-page read each, spaced so the reads cannot overlap. An empty
// result means the range holds no records at all. The draw is seeded
// from the range start, so identical inputs reproduce identical offsets.
func (s *OffsetSampler) ComputeOffsets(ctx context.Context, subreddit string, tr domain.TimeRange, desired, pageLimit int) ([]time.Time, error) {
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	durationHours := tr.DurationHours()
	if durationHours < 1 {
		return nil, ErrDegenerateRange
	}

	total, err := s.oracle.TotalCount(ctx, subreddit, tr.After, tr.Before)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	resultsPerHour := ceilDiv(total, durationHours)
	queriesNeeded := ceilDiv(desired, pageLimit)
	gapHours := ceilDiv(pageLimit, resultsPerHour)
	slog.Debug("computing offsets",
		"sub", subreddit,
		"duration_hours", durationHours,
		"total_results", total,
		"results_per_hour", resultsPerHour,
		"queries_needed", queriesNeeded,
		"gap_hours", gapHours)

	exhausted := &ExhaustedError{
		Attempts:       s.attempts,
		QueriesNeeded:  queriesNeeded,
		DurationHours:  durationHours,
		ResultsPerHour: resultsPerHour,
		GapHours:       gapHours,
	}
	if queriesNeeded > durationHours {
		// More pages than hour slots: no draw can ever succeed.
		exhausted.Attempts = 0
		return nil, exhausted
	}

	base := tr.After.Unix()
	for attempt := 0; attempt < s.attempts; attempt++ {
		offsets := seededSample(durationHours, queriesNeeded, base+int64(attempt))
		if !gapsWideEnough(offsets, gapHours) {
			slog.Debug("offset draw overlaps, advancing seed", "attempt", attempt)
			continue
		}
		anchors := make([]time.Time, len(offsets))
		for i, h := range offsets {
			anchors[i] = tr.After.Add(time.Duration(h) * time.Hour)
		}
		return anchors, nil
	}
	return nil, exhausted
}

// seededSample draws k distinct integers from [0, n) and returns them
// sorted ascending. The same seed always produces the same draw.
func seededSample(n, k int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed))
	draw := rng.Perm(n)[:k]
	sort.Ints(draw)
	return draw
}

// gapsWideEnough reports whether every adjacent pair of sorted offsets
// is separated by strictly more than gapHours, so a full-page read at
// one offset cannot reach into the next.
func gapsWideEnough(offsets []int, gapHours int) bool {
	for i := 1; i < len(offsets); i++ {
		if offsets[i]-offsets[i-1] <= gapHours {
			return false
		}
	}
	return true
}

// ceilDiv rounds up, biasing hour arithmetic toward wider gaps.
func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
