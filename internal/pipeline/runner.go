package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qepting91/trending-scraper/internal/domain"
)

// Summary counts the outcome of one cycle
type Summary struct {
	Saved  int
	Empty  int
	Failed int
	Paths  []string
}

// Runner walks every category and window sequentially: fetch, extract, save.
type Runner struct {
	Fetcher    domain.Fetcher
	Extractor  domain.Extractor
	Sink       domain.Sink
	Categories []string
	Windows    []domain.Window
	Logger     *slog.Logger
	Now        func() time.Time
}

// Targets expands categories and windows into the ordered target list
func (r *Runner) Targets() []domain.FetchTarget {
	categories := r.Categories
	if len(categories) == 0 {
		categories = []string{""}
	}
	windows := r.Windows
	if len(windows) == 0 {
		windows = domain.Windows()
	}

	targets := make([]domain.FetchTarget, 0, len(categories)*len(windows))
	for _, c := range categories {
		for _, w := range windows {
			targets = append(targets, domain.FetchTarget{Window: w, Category: c})
		}
	}
	return targets
}

// RunCycle never aborts on a single target's failure; it logs and moves on.
func (r *Runner) RunCycle(ctx context.Context) Summary {
	logger := r.logger()
	var sum Summary

	for _, t := range r.Targets() {
		if ctx.Err() != nil {
			logger.Warn("Cycle cancelled", "remaining_from", t.String())
			break
		}

		logger.Info("Scraping trending repositories", "target", t.String())
		path, count, err := r.runTarget(ctx, t)
		switch {
		case err != nil:
			sum.Failed++
			logger.Error("Target failed", "target", t.String(), "err", err)
		case count == 0:
			sum.Empty++
			logger.Warn("No trending repositories found", "target", t.String())
		default:
			sum.Saved++
			sum.Paths = append(sum.Paths, path)
		}
	}

	logger.Info("Scrape cycle complete", "saved", sum.Saved, "empty", sum.Empty, "failed", sum.Failed)
	return sum
}

func (r *Runner) runTarget(ctx context.Context, t domain.FetchTarget) (path string, count int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recovered: %v", rec)
		}
	}()

	page, err := r.Fetcher.Fetch(ctx, t)
	if err != nil {
		return "", 0, err
	}

	records := r.Extractor.Extract(page)
	if len(records) == 0 {
		return "", 0, nil
	}

	batch := domain.Batch{
		CapturedAt: r.now(),
		Window:     t.Window,
		Category:   t.Category,
		Records:    records,
	}
	path, err = r.Sink.Save(batch)
	if err != nil {
		return "", 0, fmt.Errorf("save batch: %w", err)
	}
	return path, batch.Count(), nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}
