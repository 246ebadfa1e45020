package dashboard

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/qepting91/trending-scraper/internal/domain"
	"github.com/qepting91/trending-scraper/internal/storage"
)

// NewHandler serves the charts on / and Prometheus metrics on /metrics
func NewHandler(dataDir string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		batches := loadLatest(dataDir, logger)
		if len(batches) == 0 {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			fmt.Fprintln(w, "no snapshots yet")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		for _, b := range batches {
			if err := render(w, b); err != nil {
				logger.Error("Dashboard render failed", "window", b.Window, "err", err)
				return
			}
		}
	})
	return mux
}

func StartServer(dataDir string, port string, logger *slog.Logger) error {
	return http.ListenAndServe(":"+port, NewHandler(dataDir, logger))
}

func render(w io.Writer, b domain.Batch) error {
	// 1. Stars gained in the window
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Trending (%s)", b.Window),
			Subtitle: b.CapturedAt.Format("2006-01-02 15:04"),
		}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	var barX []string
	var barY []opts.BarData
	for _, r := range b.Records {
		barX = append(barX, r.Name)
		barY = append(barY, opts.BarData{Value: r.StarsInWindow})
	}
	bar.SetXAxis(barX).AddSeries("Stars", barY)

	// 2. Language share
	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Languages (%s)", b.Window)}))
	langCounts := make(map[string]int)
	for _, r := range b.Records {
		langCounts[r.Language]++
	}
	langs := make([]string, 0, len(langCounts))
	for k := range langCounts {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	var pieItems []opts.PieData
	for _, k := range langs {
		pieItems = append(pieItems, opts.PieData{Name: k, Value: langCounts[k]})
	}
	pie.AddSeries("Repositories", pieItems)

	if err := bar.Render(w); err != nil {
		return err
	}
	return pie.Render(w)
}

func loadLatest(dir string, logger *slog.Logger) []domain.Batch {
	var batches []domain.Batch
	for _, win := range domain.Windows() {
		path, err := storage.LatestSnapshot(dir, win)
		if err != nil {
			continue
		}
		b, err := storage.ReadSnapshot(path)
		if err != nil {
			logger.Warn("Skipping unreadable snapshot", "path", path, "err", err)
			continue
		}
		batches = append(batches, b)
	}
	return batches
}
