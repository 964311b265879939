package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// Manual-confirmation URLs included per row, one per API.
const (
	pushshiftAPIURL = "https://api.pushshift.io/reddit/submission/search?ids="
	redditAPIURL    = "https://api.reddit.com/api/info/?id=t3_"
)

// BuildChecked joins indexed records with their live statuses. Records
// whose status lookup returned nothing keep zero-valued live fields.
func BuildChecked(records []domain.Record, statuses map[string]domain.Status) []domain.CheckedRecord {
	checked := make([]domain.CheckedRecord, 0, len(records))
	for _, r := range records {
		row := domain.CheckedRecord{Record: r, AuthorNow: "[unknown]"}
		if r.RetrievedOn > 0 {
			row.ElapsedHours = int((r.RetrievedOn - r.CreatedUTC + 1800) / 3600)
		}
		if st, ok := statuses[r.ID]; ok {
			row.AuthorNow = st.Author
			row.DelAuthorNow = st.AuthorDeleted
			row.DelTextNow = st.TextDeleted
			row.RemTextNow = st.TextRemoved
		}
		checked = append(checked, row)
	}
	return checked
}

// ExportCSV writes checked rows with the deletion-status column set the
// downstream analysis expects.
func ExportCSV(path string, rows []domain.CheckedRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"author_r", "del_author_p", "del_author_r",
		"title", "id", "created_utc", "elapsed_hours",
		"score_p", "num_comments_p",
		"del_text_p", "del_text_r", "rem_text_r",
		"url", "url_api_p", "url_api_r",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		r := row.Record
		created := time.Unix(r.CreatedUTC, 0).UTC().Format("20060102 15:04:05")
		rec := []string{
			row.AuthorNow,
			boolStr(r.AuthorDeleted()),
			boolStr(row.DelAuthorNow),
			r.Title,
			r.ID,
			created,
			fmt.Sprintf("%d", row.ElapsedHours),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%d", r.NumComments),
			boolStr(r.TextDeleted()),
			boolStr(row.DelTextNow),
			boolStr(row.RemTextNow),
			r.URL,
			pushshiftAPIURL + r.ID,
			redditAPIURL + r.ID,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}

func boolStr(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
