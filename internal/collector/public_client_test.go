package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/qepting91/trending-scraper/internal/domain"
	"github.com/qepting91/trending-scraper/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const trendingBody = `<html><body><article class="Box-row">ok</article></body></html>`

// flakyServer fails the first `failures` requests with a 503
func flakyServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		if n <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(trendingBody))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestClient(baseURL string, clock *fakeClock) *PublicClient {
	return NewPublicClient(PublicOptions{
		BaseURL: baseURL,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Sleeper: clock.Sleep,
	})
}

func TestTrendingURL(t *testing.T) {
	assert.Equal(t, "https://github.com/trending?since=daily",
		TrendingURL("https://github.com", domain.FetchTarget{Window: domain.Daily}))
	assert.Equal(t, "https://github.com/trending/go?since=weekly",
		TrendingURL("https://github.com/", domain.FetchTarget{Window: domain.Weekly, Category: "go"}))
	assert.Equal(t, "https://github.com/trending/c%23?since=monthly",
		TrendingURL("https://github.com", domain.FetchTarget{Window: domain.Monthly, Category: "c#"}))
}

func TestFetchSuccessSingleAttempt(t *testing.T) {
	for _, w := range domain.Windows() {
		t.Run(string(w), func(t *testing.T) {
			var (
				mu              sync.Mutex
				gotUA, gotSince string
				hits            atomic.Int32
			)
			srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				mu.Lock()
				gotUA = r.Header.Get("User-Agent")
				gotSince = r.URL.Query().Get("since")
				mu.Unlock()
				rw.Write([]byte(trendingBody))
			}))
			defer srv.Close()

			clock := &fakeClock{}
			page, err := newTestClient(srv.URL, clock).Fetch(context.Background(), domain.FetchTarget{Window: w})
			require.NoError(t, err)
			assert.Equal(t, trendingBody, page.Body)
			assert.Equal(t, http.StatusOK, page.StatusCode)
			assert.Equal(t, int32(1), hits.Load())
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, DefaultUserAgent, gotUA)
			assert.Equal(t, string(w), gotSince)
			assert.Empty(t, clock.waits)
		})
	}
}

func TestFetchRecoversAfterTwoFailures(t *testing.T) {
	srv, hits := flakyServer(t, 2)
	clock := &fakeClock{}
	before := testutil.ToFloat64(metrics.FetchAttemptsTotal.WithLabelValues("weekly", "failure"))

	page, err := newTestClient(srv.URL, clock).Fetch(context.Background(), domain.FetchTarget{Window: domain.Weekly})
	require.NoError(t, err)
	assert.Equal(t, trendingBody, page.Body)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, clock.waits)

	after := testutil.ToFloat64(metrics.FetchAttemptsTotal.WithLabelValues("weekly", "failure"))
	assert.Equal(t, 2.0, after-before)
}

func TestFetchFailsAfterMaxAttempts(t *testing.T) {
	srv, hits := flakyServer(t, 100)
	clock := &fakeClock{}
	target := domain.FetchTarget{Window: domain.Monthly, Category: "rust"}

	_, err := newTestClient(srv.URL, clock).Fetch(context.Background(), target)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, target, fe.Target)
	assert.Equal(t, 3, fe.Attempts)
	assert.Equal(t, "unexpected status", fe.Reason)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, clock.waits)
}

func TestFetchTimeoutIsTransient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(trendingBody))
	}))
	defer srv.Close()

	clock := &fakeClock{}
	client := NewPublicClient(PublicOptions{
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Sleeper: clock.Sleep,
	})
	page, err := client.Fetch(context.Background(), domain.FetchTarget{Window: domain.Daily})
	require.NoError(t, err)
	assert.Equal(t, trendingBody, page.Body)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, []time.Duration{1 * time.Second}, clock.waits)
}

func TestFetchNetworkErrorReason(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // connection refused from here on

	clock := &fakeClock{}
	_, err := newTestClient(url, clock).Fetch(context.Background(), domain.FetchTarget{Window: domain.Daily})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "request failed", fe.Reason)
	assert.NotNil(t, errors.Unwrap(fe))
	assert.Len(t, clock.waits, 2)
}

func TestFetchLimiterCancelledIsFetchError(t *testing.T) {
	srv, hits := flakyServer(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewPublicClient(PublicOptions{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Every(time.Hour), 1),
		Sleeper: (&fakeClock{}).Sleep,
	})
	_, err := client.Fetch(ctx, domain.FetchTarget{Window: domain.Daily})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 0, fe.Attempts)
	assert.Equal(t, "cancelled", fe.Reason)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchCancelledDuringBackoffKeepsStatusError(t *testing.T) {
	srv, hits := flakyServer(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	sleeper := func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	client := NewPublicClient(PublicOptions{
		BaseURL: srv.URL,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Sleeper: sleeper,
	})
	_, err := client.Fetch(ctx, domain.FetchTarget{Window: domain.Daily})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Attempts)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), hits.Load())
}

func TestMockClientRendersEntries(t *testing.T) {
	mc := &MockClient{Entries: 4}
	page, err := mc.Fetch(context.Background(), domain.FetchTarget{Window: domain.Weekly})
	require.NoError(t, err)
	assert.Contains(t, page.Body, "stars this week")
	assert.Equal(t, 4, strings.Count(page.Body, `class="Box-row"`))
}

func TestWithThousands(t *testing.T) {
	assert.Equal(t, "0", withThousands(0))
	assert.Equal(t, "999", withThousands(999))
	assert.Equal(t, "12,345", withThousands(12345))
	assert.Equal(t, "1,234,567", withThousands(1234567))
}
