package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/hdevoe/reddit-del/internal/collector"
	"github.com/hdevoe/reddit-del/internal/dashboard"
	"github.com/hdevoe/reddit-del/internal/domain"
	"github.com/hdevoe/reddit-del/internal/ingest"
	"github.com/hdevoe/reddit-del/internal/sampling"
	"github.com/hdevoe/reddit-del/internal/storage"
	"github.com/hdevoe/reddit-del/internal/watch"
	"github.com/joho/godotenv"
)

const dateLayout = "2006-01-02"

func main() {
	// 1. Setup
	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var (
		subreddit   = flag.String("subreddit", "", "subreddit to query")
		afterStr    = flag.String("after", "", "range start (YYYY-MM-DD)")
		beforeStr   = flag.String("before", "", "range end (YYYY-MM-DD)")
		count       = flag.Int("count", 100, "records to collect")
		sampled     = flag.Bool("sample", false, "sample across the range instead of taking the first N")
		targetsPath = flag.String("targets", "", "CSV of queries to run instead of the single-query flags")
		check       = flag.Bool("check", false, "cross-check live status on reddit and export a CSV per query")
		watchInit   = flag.Bool("watch-init", false, "start watching the collected records")
		watchUpdate = flag.String("watch-update", "", "watch CSV to re-check and rotate")
		dataDir     = flag.String("data", "data", "output directory")
		servePort   = flag.String("serve", "", "serve the dashboard on this port and exit when interrupted")
	)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		logger.Error("Failed to create data dir", "err", err)
		os.Exit(1)
	}
	dataFile := filepath.Join(*dataDir, "current.json")

	if *servePort != "" {
		logger.Info("Starting Dashboard", "port", *servePort)
		if err := dashboard.StartServer(dataFile, *servePort); err != nil {
			logger.Error("Dashboard failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *watchUpdate != "" {
		if err := runWatchUpdate(ctx, *dataDir, *watchUpdate); err != nil {
			logger.Error("Watch update failed", "err", err)
			os.Exit(1)
		}
		return
	}

	// 2. Initialize search index (Using Factory)
	index, err := collector.NewSearchIndex()
	if err != nil {
		logger.Error("Failed to initialize search index", "error", err)
		os.Exit(1)
	}
	logger.Info("Search index initialized", "mode", os.Getenv("COLLECTOR_MODE"))

	oracle := collector.NewOracle(index)
	sampler := sampling.NewOffsetSampler(oracle)
	coll := sampling.NewCollector(index, sampler, collector.PushshiftLimit)

	// 3. Build the query list
	queries, err := buildQueries(*targetsPath, *subreddit, *afterStr, *beforeStr, *count, *sampled)
	if err != nil {
		logger.Error("Bad query parameters", "err", err)
		os.Exit(1)
	}

	// 4. Writer setup
	resultQueue := make(chan domain.Record, 100)
	var writerWg sync.WaitGroup
	writer := &storage.WriterService{FilePath: dataFile}
	writerWg.Add(1)
	go writer.Start(&writerWg, resultQueue)

	// 5. Run queries sequentially: the upstream rate limit is the
	// bottleneck, so there is nothing to gain from fanning out.
	exitCode := 0
	for _, q := range queries {
		logger.Info("Collecting", "query", q.Name, "sub", q.Spec.Subreddit,
			"mode", q.Spec.Mode.String(), "count", q.Spec.Count)
		result, err := coll.Collect(ctx, q.Spec)
		if err != nil {
			logger.Error("Collection failed", "query", q.Name, "err", err)
			exitCode = 1
			break
		}
		logger.Info("Collected", "query", q.Name,
			"records", len(result.Records), "duplicates", result.Duplicates)

		for _, rec := range result.Records {
			resultQueue <- rec
		}

		if *check || *watchInit {
			if err := postProcess(ctx, *dataDir, q, result.Records, *check, *watchInit); err != nil {
				logger.Error("Post-processing failed", "query", q.Name, "err", err)
				exitCode = 1
				break
			}
		}
	}

	close(resultQueue)
	writerWg.Wait()
	logger.Info("Done. Data saved.", "file", dataFile)
	os.Exit(exitCode)
}

// buildQueries loads the targets CSV when given, otherwise assembles a
// single query from the flags.
func buildQueries(targetsPath, subreddit, afterStr, beforeStr string, count int, sampled bool) ([]domain.Query, error) {
	if targetsPath != "" {
		return ingest.LoadQueries(targetsPath)
	}

	if subreddit == "" {
		return nil, fmt.Errorf("either -targets or -subreddit is required")
	}
	after, err := time.Parse(dateLayout, afterStr)
	if err != nil {
		return nil, fmt.Errorf("parse -after: %w", err)
	}
	before, err := time.Parse(dateLayout, beforeStr)
	if err != nil {
		return nil, fmt.Errorf("parse -before: %w", err)
	}

	mode := domain.FirstN
	if sampled {
		mode = domain.Sampled
	}
	name := fmt.Sprintf("%s-%s", subreddit, afterStr)
	return []domain.Query{{
		Name: name,
		Spec: domain.SampleSpec{
			Subreddit: subreddit,
			Range:     domain.TimeRange{After: after.UTC(), Before: before.UTC()},
			Count:     count,
			Mode:      mode,
		},
	}}, nil
}

// postProcess cross-checks collected records against live Reddit and,
// depending on flags, exports a status CSV or starts a watch file.
func postProcess(ctx context.Context, dataDir string, q domain.Query, records []domain.Record, check, watchInit bool) error {
	status, err := collector.NewStatusClientFromEnv()
	if err != nil {
		return fmt.Errorf("reddit client: %w", err)
	}

	if check {
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		statuses, err := status.Statuses(ctx, ids)
		if err != nil {
			return err
		}
		rows := storage.BuildChecked(records, statuses)
		out := filepath.Join(dataDir, q.Name+".csv")
		if err := storage.ExportCSV(out, rows); err != nil {
			return err
		}
		slog.Info("Exported status CSV", "file", out, "rows", len(rows))
	}

	if watchInit {
		svc := watch.NewService(status, dataDir)
		path, err := svc.Init(q.Spec.Subreddit, records)
		if err != nil {
			return err
		}
		slog.Info("New subreddit tracked", "file", path)
	}
	return nil
}

func runWatchUpdate(ctx context.Context, dataDir, watchedPath string) error {
	status, err := collector.NewStatusClientFromEnv()
	if err != nil {
		return fmt.Errorf("reddit client: %w", err)
	}
	svc := watch.NewService(status, dataDir)

	updated, err := svc.Update(ctx, watchedPath)
	if err != nil {
		return err
	}
	if err := svc.Rotate(updated); err != nil {
		return err
	}
	slog.Info("Watch file updated and rotated", "file", watchedPath)
	return nil
}
