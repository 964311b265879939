package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

const dateLayout = "2006-01-02"

// LoadQueries reads a targets CSV with header
// name,subreddit,after,before,count,mode and returns the valid rows.
// Invalid rows are skipped rather than failing the whole file.
func LoadQueries(path string) ([]domain.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var queries []domain.Query
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 {
			continue // Skip header
		}
		if len(record) < 5 {
			continue
		}

		// Validation (Fail-Soft)
		sub := strings.TrimSpace(record[1])
		if !subNameRegex.MatchString(sub) {
			continue
		}
		after, err := time.Parse(dateLayout, strings.TrimSpace(record[2]))
		if err != nil {
			continue
		}
		before, err := time.Parse(dateLayout, strings.TrimSpace(record[3]))
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(record[4]))
		if err != nil || count <= 0 {
			continue
		}

		mode := domain.FirstN
		if len(record) > 5 && strings.TrimSpace(record[5]) == "sampled" {
			mode = domain.Sampled
		}

		queries = append(queries, domain.Query{
			Name: strings.TrimSpace(record[0]),
			Spec: domain.SampleSpec{
				Subreddit: sub,
				Range:     domain.TimeRange{After: after, Before: before},
				Count:     count,
				Mode:      mode,
			},
		})
	}
	return queries, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
