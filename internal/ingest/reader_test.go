package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

func writeTargets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadQueries(t *testing.T) {
	path := writeTargets(t, "\uFEFF"+
		"name,subreddit,after,before,count,mode\n"+
		"aita-2018,AmItheAsshole,2018-04-01,2018-04-30,500,first_n\n"+
		"advice-sampled,Advice,2022-01-01,2022-06-10,5000,sampled\n"+
		"bad sub!,no t a sub,2022-01-01,2022-02-01,10,first_n\n"+
		"bad-date,Advice,April-first,2022-02-01,10,first_n\n"+
		"bad-count,Advice,2022-01-01,2022-02-01,-3,first_n\n")

	queries, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("got %d queries, want 2 valid rows", len(queries))
	}

	q := queries[0]
	if q.Name != "aita-2018" || q.Spec.Subreddit != "AmItheAsshole" {
		t.Errorf("first query = %+v", q)
	}
	if q.Spec.Mode != domain.FirstN || q.Spec.Count != 500 {
		t.Errorf("first query spec = %+v", q.Spec)
	}
	wantAfter := time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC)
	if !q.Spec.Range.After.Equal(wantAfter) {
		t.Errorf("after = %v, want %v", q.Spec.Range.After, wantAfter)
	}

	if queries[1].Spec.Mode != domain.Sampled {
		t.Errorf("second query mode = %v, want sampled", queries[1].Spec.Mode)
	}
}

func TestLoadQueriesMissingFile(t *testing.T) {
	if _, err := LoadQueries(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
