package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
	"github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"
)

// redditBatch is how many fullnames one info listing accepts.
const redditBatch = 100

// StatusClient checks the current state of submissions on Reddit itself,
// batching lookups through the info listing endpoint.
type StatusClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewStatusClient(id, secret, user, pass, userAgent string) (*StatusClient, error) {
	creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &StatusClient{client: client, limiter: limiter}, nil
}

// Statuses resolves the live status of each submission ID. Accepts bare
// IDs or t3_ fullnames.
func (sc *StatusClient) Statuses(ctx context.Context, ids []string) (map[string]domain.Status, error) {
	fullnames := make([]string, len(ids))
	for i, id := range ids {
		if strings.HasPrefix(id, "t3_") {
			fullnames[i] = id
		} else {
			fullnames[i] = "t3_" + id
		}
	}

	statuses := make(map[string]domain.Status, len(ids))
	for start := 0; start < len(fullnames); start += redditBatch {
		end := min(start+redditBatch, len(fullnames))

		if err := sc.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		posts, _, err := sc.client.Listings.GetPosts(ctx, fullnames[start:end]...)
		if err != nil {
			return nil, fmt.Errorf("reddit info listing: %w", err)
		}

		for _, p := range posts {
			author := p.Author
			if author == "" {
				author = "[deleted]"
			}
			statuses[p.ID] = domain.Status{
				ID:            p.ID,
				Author:        author,
				AuthorDeleted: author == "[deleted]",
				TextDeleted:   p.Body == "[deleted]",
				TextRemoved:   p.Body == "[removed]",
			}
		}
	}
	return statuses, nil
}
