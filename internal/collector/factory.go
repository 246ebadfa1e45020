package collector

import (
	"fmt"
	"log/slog"

	"github.com/qepting91/trending-scraper/internal/config"
	"github.com/qepting91/trending-scraper/internal/domain"
)

// NewFetcher selects the correct implementation based on the mode
func NewFetcher(cfg *config.Config, logger *slog.Logger) (domain.Fetcher, error) {
	switch cfg.CollectorMode {
	case "public":
		backoff := DefaultBackoff()
		backoff.MaxAttempts = cfg.FetchMaxAttempts
		return NewPublicClient(PublicOptions{
			BaseURL:   cfg.BaseURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.FetchTimeout,
			Backoff:   backoff,
			Logger:    logger,
		}), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'public' or 'mock')", cfg.CollectorMode)
	}
}
