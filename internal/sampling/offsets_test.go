package sampling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

type fixedOracle struct {
	total int
	err   error
	calls int
}

func (o *fixedOracle) TotalCount(ctx context.Context, sub string, after, before time.Time) (int, error) {
	o.calls++
	return o.total, o.err
}

func hourRange(hours int) domain.TimeRange {
	after := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.TimeRange{After: after, Before: after.Add(time.Duration(hours) * time.Hour)}
}

func TestComputeOffsetsExampleScenario(t *testing.T) {
	// duration 50h, total 1000 -> 20/hour; desired 200 at limit 100
	// -> 2 queries needing gaps over ceil(100/20)=5 hours.
	s := NewOffsetSampler(&fixedOracle{total: 1000})
	tr := hourRange(50)

	anchors, err := s.ComputeOffsets(context.Background(), "Advice", tr, 200, 100)
	if err != nil {
		t.Fatalf("ComputeOffsets: %v", err)
	}
	if len(anchors) != 2 {
		t.Fatalf("got %d anchors, want 2", len(anchors))
	}
	gap := anchors[1].Sub(anchors[0])
	if gap <= 5*time.Hour {
		t.Errorf("anchors %v apart, want more than 5h", gap)
	}
	for _, a := range anchors {
		if a.Before(tr.After) || !a.Before(tr.Before) {
			t.Errorf("anchor %v outside range", a)
		}
	}
}

func TestComputeOffsetsDeterministic(t *testing.T) {
	tr := hourRange(200)
	first, err := NewOffsetSampler(&fixedOracle{total: 5000}).
		ComputeOffsets(context.Background(), "Advice", tr, 500, 100)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := NewOffsetSampler(&fixedOracle{total: 5000}).
		ComputeOffsets(context.Background(), "Advice", tr, 500, 100)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("anchor %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestComputeOffsetsNeverViolatesGap(t *testing.T) {
	// Across a spread of densities the result is either a valid set or
	// ExhaustedError, never a set with a too-small gap.
	for _, total := range []int{50, 500, 5000, 50000, 500000} {
		s := NewOffsetSampler(&fixedOracle{total: total})
		tr := hourRange(72)
		anchors, err := s.ComputeOffsets(context.Background(), "Advice", tr, 1000, 100)
		if err != nil {
			var exhausted *ExhaustedError
			if !errors.As(err, &exhausted) {
				t.Fatalf("total=%d: unexpected error %v", total, err)
			}
			continue
		}
		perHour := (total + 71) / 72
		gap := time.Duration((100+perHour-1)/perHour) * time.Hour
		for i := 1; i < len(anchors); i++ {
			if d := anchors[i].Sub(anchors[i-1]); d <= gap {
				t.Errorf("total=%d: anchors %d,%d only %v apart, need more than %v",
					total, i-1, i, d, gap)
			}
		}
	}
}

func TestComputeOffsetsZeroTotal(t *testing.T) {
	s := NewOffsetSampler(&fixedOracle{total: 0})
	anchors, err := s.ComputeOffsets(context.Background(), "ghosttown", hourRange(50), 200, 100)
	if err != nil {
		t.Fatalf("ComputeOffsets: %v", err)
	}
	if len(anchors) != 0 {
		t.Errorf("got %d anchors for empty range, want 0", len(anchors))
	}
}

func TestComputeOffsetsDegenerateRange(t *testing.T) {
	after := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := domain.TimeRange{After: after, Before: after.Add(30 * time.Minute)}
	oracle := &fixedOracle{total: 100}

	_, err := NewOffsetSampler(oracle).ComputeOffsets(context.Background(), "Advice", tr, 100, 100)
	if !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("got %v, want ErrDegenerateRange", err)
	}
	if oracle.calls != 0 {
		t.Errorf("oracle queried %d times before range validation", oracle.calls)
	}
}

func TestComputeOffsetsInvalidRange(t *testing.T) {
	after := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := domain.TimeRange{After: after, Before: after}
	if _, err := NewOffsetSampler(&fixedOracle{total: 1}).
		ComputeOffsets(context.Background(), "Advice", tr, 100, 100); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestComputeOffsetsMorePagesThanSlots(t *testing.T) {
	// 10 pages cannot fit in a 2-hour range: exhausted before drawing.
	s := NewOffsetSampler(&fixedOracle{total: 10000})
	_, err := s.ComputeOffsets(context.Background(), "Advice", hourRange(2), 1000, 100)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want ExhaustedError", err)
	}
	if exhausted.QueriesNeeded != 10 {
		t.Errorf("QueriesNeeded = %d, want 10", exhausted.QueriesNeeded)
	}
}

func TestComputeOffsetsSeedBudgetExhausted(t *testing.T) {
	// 4 pages in 4 hour-slots forces offsets {0,1,2,3}: every adjacent
	// gap is 1 <= gapHours, so all attempts fail.
	s := NewOffsetSampler(&fixedOracle{total: 10000})
	_, err := s.ComputeOffsets(context.Background(), "Advice", hourRange(4), 400, 100)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("got %v, want ExhaustedError", err)
	}
	if exhausted.Attempts != seedAttempts {
		t.Errorf("Attempts = %d, want %d", exhausted.Attempts, seedAttempts)
	}
	if exhausted.ResultsPerHour != 2500 {
		t.Errorf("ResultsPerHour = %d, want 2500", exhausted.ResultsPerHour)
	}
}

func TestComputeOffsetsExactPageDivision(t *testing.T) {
	// desired exactly divisible by the page limit: no off-by-one.
	s := NewOffsetSampler(&fixedOracle{total: 100000})
	anchors, err := s.ComputeOffsets(context.Background(), "Advice", hourRange(720), 300, 100)
	if err != nil {
		t.Fatalf("ComputeOffsets: %v", err)
	}
	if len(anchors) != 3 {
		t.Errorf("got %d anchors, want 3", len(anchors))
	}
}

func TestComputeOffsetsOracleError(t *testing.T) {
	wantErr := errors.New("index down")
	_, err := NewOffsetSampler(&fixedOracle{err: wantErr}).
		ComputeOffsets(context.Background(), "Advice", hourRange(50), 200, 100)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want oracle error to propagate", err)
	}
}

func TestSeededSample(t *testing.T) {
	draw := seededSample(50, 5, 7)
	if len(draw) != 5 {
		t.Fatalf("got %d values, want 5", len(draw))
	}
	seen := make(map[int]bool)
	for i, v := range draw {
		if v < 0 || v >= 50 {
			t.Errorf("value %d out of [0,50)", v)
		}
		if seen[v] {
			t.Errorf("duplicate value %d", v)
		}
		seen[v] = true
		if i > 0 && draw[i-1] >= v {
			t.Errorf("not strictly increasing at %d: %v", i, draw)
		}
	}

	again := seededSample(50, 5, 7)
	for i := range draw {
		if draw[i] != again[i] {
			t.Fatalf("same seed produced different draws: %v vs %v", draw, again)
		}
	}
}

func TestGapsWideEnough(t *testing.T) {
	cases := []struct {
		offsets []int
		gap     int
		want    bool
	}{
		{[]int{3, 9, 20, 25, 41}, 5, true},
		{[]int{3, 9, 20, 25, 41}, 6, false}, // 9-3 == 6, not strictly greater
		{[]int{0, 5}, 5, false},
		{[]int{0, 6}, 5, true},
		{[]int{7}, 100, true},
		{nil, 100, true},
	}
	for _, c := range cases {
		if got := gapsWideEnough(c.offsets, c.gap); got != c.want {
			t.Errorf("gapsWideEnough(%v, %d) = %v, want %v", c.offsets, c.gap, got, c.want)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{200, 100, 2},
		{201, 100, 3},
		{1, 100, 1},
		{1000, 50, 20},
		{0, 7, 0},
	}
	for _, c := range cases {
		if got := ceilDiv(c.a, c.b); got != c.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
