package collector

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// MockIndex implements domain.SearchIndex with synthetic submissions at
// a fixed uniform density, for offline runs without a live index.
type MockIndex struct {
	// PerHour controls the synthetic density.
	PerHour int
}

func NewMockIndex() *MockIndex {
	return &MockIndex{PerHour: 5}
}

func (mi *MockIndex) step() int64 {
	return int64(3600 / mi.PerHour)
}

func (mi *MockIndex) Search(ctx context.Context, sub string, after, before time.Time, limit int) ([]domain.Record, error) {
	// Simulate network latency
	time.Sleep(100 * time.Millisecond)

	step := mi.step()
	var records []domain.Record
	for ts := after.Unix() + step; ts < before.Unix() && len(records) < limit; ts += step {
		records = append(records, domain.Record{
			ID:          fmt.Sprintf("mock_%s_%d", sub, ts),
			Title:       fmt.Sprintf("[%s] Simulated submission at %d", sub, ts),
			Author:      "simulated_user",
			Subreddit:   sub,
			URL:         "http://localhost/mock-url",
			Score:       rand.Intn(500),
			NumComments: rand.Intn(50),
			CreatedUTC:  ts,
			RetrievedOn: ts + 3600,
		})
	}
	return records, nil
}

func (mi *MockIndex) TotalCount(ctx context.Context, sub string, after, before time.Time) (int, error) {
	step := mi.step()
	span := before.Unix() - after.Unix()
	if span <= 0 {
		return 0, nil
	}
	return int(span / step), nil
}
