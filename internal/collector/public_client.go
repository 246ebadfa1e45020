package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qepting91/trending-scraper/internal/domain"
	"github.com/qepting91/trending-scraper/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://github.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultTimeout   = 10 * time.Second
)

// PublicClient fetches the server-rendered trending page over plain HTTP
type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	backoff    BackoffPolicy
	sleep      Sleeper
	baseURL    string
	userAgent  string
	logger     *slog.Logger
}

type PublicOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Backoff   BackoffPolicy
	Limiter   *rate.Limiter
	Sleeper   Sleeper
	Logger    *slog.Logger
}

func NewPublicClient(opts PublicOptions) *PublicClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Backoff.MaxAttempts <= 0 {
		opts.Backoff = DefaultBackoff()
	}
	if opts.Limiter == nil {
		// Trending is a public HTML page: 1 req / 2 seconds
		opts.Limiter = rate.NewLimiter(rate.Every(2*time.Second), 1)
	}
	if opts.Sleeper == nil {
		opts.Sleeper = SleepContext
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &PublicClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    opts.Limiter,
		backoff:    opts.Backoff,
		sleep:      opts.Sleeper,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		logger:     opts.Logger,
	}
}

// TrendingURL builds the ranking URL for a target
func TrendingURL(baseURL string, target domain.FetchTarget) string {
	path := "/trending"
	if target.Category != "" {
		path += "/" + url.PathEscape(target.Category)
	}
	q := url.Values{}
	q.Set("since", string(target.Window))
	return strings.TrimRight(baseURL, "/") + path + "?" + q.Encode()
}

func (pc *PublicClient) Fetch(ctx context.Context, target domain.FetchTarget) (domain.RawPage, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return domain.RawPage{}, &FetchError{Target: target, Reason: classify(err), Err: err}
	}

	pageURL := TrendingURL(pc.baseURL, target)
	var page domain.RawPage

	attempts, err := Retry(ctx, pc.backoff, pc.sleep, func(attempt int) error {
		start := time.Now()
		p, err := pc.get(ctx, pageURL)
		metrics.FetchDuration.WithLabelValues(string(target.Window)).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.FetchAttemptsTotal.WithLabelValues(string(target.Window), "failure").Inc()
			pc.logger.Error("Fetch attempt failed",
				"target", target.String(),
				"attempt", attempt+1,
				"max_attempts", pc.backoff.MaxAttempts,
				"err", err)
			if attempt < pc.backoff.MaxAttempts-1 {
				pc.logger.Info("Waiting before retry", "target", target.String(), "wait", pc.backoff.Delay(attempt))
			}
			return err
		}
		metrics.FetchAttemptsTotal.WithLabelValues(string(target.Window), "success").Inc()
		pc.logger.Info("Fetch attempt succeeded",
			"target", target.String(),
			"attempt", attempt+1,
			"status", p.StatusCode,
			"bytes", len(p.Body))
		page = p
		return nil
	})
	if err != nil {
		metrics.FetchesFailedTotal.WithLabelValues(string(target.Window)).Inc()
		pc.logger.Error("Max retries reached, giving up on target", "target", target.String(), "attempts", attempts)
		return domain.RawPage{}, &FetchError{
			Target:   target,
			Reason:   classify(err),
			Attempts: attempts,
			Err:      err,
		}
	}
	return page, nil
}

func (pc *PublicClient) get(ctx context.Context, pageURL string) (domain.RawPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.RawPage{}, err
	}
	req.Header.Set("User-Agent", pc.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return domain.RawPage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.RawPage{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.RawPage{}, fmt.Errorf("read body: %w", err)
	}

	return domain.RawPage{
		URL:        pageURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

func classify(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrUnexpectedStatus):
		return "unexpected status"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "request failed"
	}
}
