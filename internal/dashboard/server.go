package dashboard

import (
	"bufio"
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/hdevoe/reddit-del/internal/domain"
)

func StartServer(dataFile string, port string) error {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		records := loadData(dataFile)

		// 1. Sample volume per subreddit
		pie := charts.NewPie()
		pie.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Records per Subreddit"}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)

		subCounts := make(map[string]int)
		for _, rec := range records {
			subCounts[rec.Subreddit]++
		}

		var pieItems []opts.PieData
		for k, v := range subCounts {
			pieItems = append(pieItems, opts.PieData{Name: k, Value: v})
		}
		pie.AddSeries("Records", pieItems)

		// 2. Deletion proportion at index time, per subreddit
		bar := charts.NewBar()
		bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Deleted at Index Time (%)"}))

		delCounts := make(map[string]int)
		for _, rec := range records {
			if rec.AuthorDeleted() || rec.TextDeleted() {
				delCounts[rec.Subreddit]++
			}
		}

		var barX []string
		var barY []opts.BarData
		for k, total := range subCounts {
			pct := 100 * float64(delCounts[k]) / float64(total)
			barX = append(barX, k)
			barY = append(barY, opts.BarData{Value: pct})
		}
		bar.SetXAxis(barX).AddSeries("Deleted %", barY)

		pie.Render(w)
		bar.Render(w)
	})

	return http.ListenAndServe(":"+port, nil)
}

func loadData(path string) []domain.Record {
	f, _ := os.Open(path)
	defer f.Close()
	var records []domain.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec domain.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records
}
