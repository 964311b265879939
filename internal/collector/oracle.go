package collector

import (
	"context"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// Oracle caches population totals from the search index. Totals for
// closed historical ranges do not change, so entries stay valid for a
// week; ranges ending near "now" are still growing and are never cached.
//
// The cache is process-local and only ever touched by the single
// synchronous collection loop, so it carries no lock.
type Oracle struct {
	index        domain.SearchIndex
	ttl          time.Duration
	recencyGuard time.Duration
	now          func() time.Time
	cache        map[oracleKey]oracleEntry
}

type oracleKey struct {
	subreddit     string
	after, before int64
}

type oracleEntry struct {
	total   int
	fetched time.Time
}

func NewOracle(index domain.SearchIndex) *Oracle {
	return &Oracle{
		index:        index,
		ttl:          7 * 24 * time.Hour,
		recencyGuard: 48 * time.Hour,
		now:          time.Now,
		cache:        make(map[oracleKey]oracleEntry),
	}
}

// TotalCount returns the number of records in [after, before), hitting
// the network at most once per key within the staleness window.
func (o *Oracle) TotalCount(ctx context.Context, subreddit string, after, before time.Time) (int, error) {
	key := oracleKey{subreddit: subreddit, after: after.Unix(), before: before.Unix()}
	if entry, ok := o.cache[key]; ok && o.now().Sub(entry.fetched) < o.ttl {
		return entry.total, nil
	}

	total, err := o.index.TotalCount(ctx, subreddit, after, before)
	if err != nil {
		return 0, err
	}

	if o.now().Sub(before) >= o.recencyGuard {
		o.cache[key] = oracleEntry{total: total, fetched: o.now()}
	}
	return total, nil
}
