// Package watch tracks the deletion and moderation status of a set of
// submissions over time. A watch file is a CSV of IDs with status flags
// and change timestamps; an update pass re-checks every ID against
// Reddit and timestamps any status that flipped since the last pass.
package watch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

const timestampLayout = "20060102 15:04:05"

// Entry is one tracked submission. A *Changed field holds the timestamp
// of the pass that first observed the flip, and is never overwritten.
type Entry struct {
	ID               string
	Subreddit        string
	Author           string
	CreatedUTC       int64
	FoundUTC         string
	DelAuthor        bool
	DelAuthorChanged string
	DelText          bool
	DelTextChanged   string
	RemText          bool
	RemTextChanged   string
}

// Service runs the watch lifecycle against a data directory.
type Service struct {
	source  domain.StatusSource
	dataDir string
	now     func() time.Time
}

func NewService(source domain.StatusSource, dataDir string) *Service {
	return &Service{source: source, dataDir: dataDir, now: time.Now}
}

// Init starts watching the given records, writing a fresh watch CSV
// named after the subreddit and date. Returns the file path.
func (s *Service) Init(subreddit string, records []domain.Record) (string, error) {
	now := s.now().UTC()
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, Entry{
			ID:         r.ID,
			Subreddit:  subreddit,
			Author:     r.Author,
			CreatedUTC: r.CreatedUTC,
			FoundUTC:   now.Format(timestampLayout),
		})
	}

	path := filepath.Join(s.dataDir,
		fmt.Sprintf("watch-%s-%s_n%d.csv", subreddit, now.Format("20060102"), len(entries)))
	if err := writeEntries(path, entries); err != nil {
		return "", err
	}
	return path, nil
}

// Update re-checks every entry in the watch file and writes the result
// beside it as updated-<name>. Statuses that already changed in an
// earlier pass keep their original timestamp.
func (s *Service) Update(ctx context.Context, watchedPath string) (string, error) {
	entries, err := readEntries(watchedPath)
	if err != nil {
		return "", err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	statuses, err := s.source.Statuses(ctx, ids)
	if err != nil {
		return "", err
	}

	nowStr := s.now().UTC().Format(timestampLayout)
	for i := range entries {
		st, ok := statuses[entries[i].ID]
		if !ok {
			continue
		}
		if entries[i].DelAuthorChanged == "" && st.AuthorDeleted {
			entries[i].DelAuthor = true
			entries[i].DelAuthorChanged = nowStr
		}
		if entries[i].DelTextChanged == "" && st.TextDeleted {
			entries[i].DelText = true
			entries[i].DelTextChanged = nowStr
		}
		if entries[i].RemTextChanged == "" && st.TextRemoved {
			entries[i].RemText = true
			entries[i].RemTextChanged = nowStr
		}
	}

	dir, name := filepath.Split(watchedPath)
	updatedPath := filepath.Join(dir, "updated-"+name)
	if err := writeEntries(updatedPath, entries); err != nil {
		return "", err
	}
	return updatedPath, nil
}

// Rotate archives the previous watch file under an epoch suffix and
// promotes the updated file to the bare name.
func (s *Service) Rotate(updatedPath string) error {
	dir, name := filepath.Split(updatedPath)
	bare := strings.TrimPrefix(name, "updated-")
	latestPath := filepath.Join(dir, bare)

	if _, err := os.Stat(latestPath); err == nil {
		archivePath := filepath.Join(dir, fmt.Sprintf("%s-arch_%d.csv",
			strings.TrimSuffix(bare, ".csv"), s.now().Unix()))
		if err := os.Rename(latestPath, archivePath); err != nil {
			return err
		}
	}
	return os.Rename(updatedPath, latestPath)
}

var watchHeader = []string{
	"id", "subreddit", "author", "created_utc", "found_utc",
	"del_author_r", "del_author_r_changed",
	"del_text_r", "del_text_r_changed",
	"rem_text_r", "rem_text_r_changed",
}

func writeEntries(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(watchHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.ID, e.Subreddit, e.Author,
			strconv.FormatInt(e.CreatedUTC, 10), e.FoundUTC,
			boolStr(e.DelAuthor), e.DelAuthorChanged,
			boolStr(e.DelText), e.DelTextChanged,
			boolStr(e.RemText), e.RemTextChanged,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(watchHeader)

	var entries []Entry
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		line++
		if line == 1 {
			continue
		}
		created, _ := strconv.ParseInt(row[3], 10, 64)
		entries = append(entries, Entry{
			ID:               row[0],
			Subreddit:        row[1],
			Author:           row[2],
			CreatedUTC:       created,
			FoundUTC:         row[4],
			DelAuthor:        row[5] == "TRUE",
			DelAuthorChanged: row[6],
			DelText:          row[7] == "TRUE",
			DelTextChanged:   row[8],
			RemText:          row[9] == "TRUE",
			RemTextChanged:   row[10],
		})
	}
	return entries, nil
}

func boolStr(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
