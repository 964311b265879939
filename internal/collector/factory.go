package collector

import (
	"fmt"
	"os"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// NewSearchIndex selects the search index implementation based on MODE
func NewSearchIndex() (domain.SearchIndex, error) {
	mode := os.Getenv("COLLECTOR_MODE")
	userAgent := os.Getenv("REDDIT_USER_AGENT")

	switch mode {
	case "", "pushshift":
		if userAgent == "" {
			return nil, fmt.Errorf("REDDIT_USER_AGENT is required for pushshift mode")
		}
		return NewPushshiftClient(userAgent), nil
	case "mock":
		return NewMockIndex(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'pushshift' or 'mock')", mode)
	}
}

// NewStatusClientFromEnv builds the live Reddit client from the same
// env vars the factory uses.
func NewStatusClientFromEnv() (*StatusClient, error) {
	return NewStatusClient(
		os.Getenv("REDDIT_CLIENT_ID"),
		os.Getenv("REDDIT_CLIENT_SECRET"),
		os.Getenv("REDDIT_USERNAME"),
		os.Getenv("REDDIT_PASSWORD"),
		os.Getenv("REDDIT_USER_AGENT"),
	)
}
