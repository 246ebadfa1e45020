package collector

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/qepting91/trending-scraper/internal/domain"
)

var mockLanguages = []string{"Go", "Rust", "Python", "TypeScript", ""}

// MockClient implements domain.Fetcher but renders fake trending markup
type MockClient struct {
	Entries int
	Latency time.Duration
}

func NewMockClient() *MockClient {
	return &MockClient{Entries: 25, Latency: 500 * time.Millisecond}
}

func (mc *MockClient) Fetch(ctx context.Context, target domain.FetchTarget) (domain.RawPage, error) {
	// Simulate network latency
	if err := SleepContext(ctx, mc.Latency); err != nil {
		return domain.RawPage{}, err
	}

	var b strings.Builder
	b.WriteString("<html><body><div class=\"Box\">\n")
	for i := 0; i < mc.Entries; i++ {
		owner := fmt.Sprintf("mock-%s", target.Window)
		repo := fmt.Sprintf("project-%d", i)
		fmt.Fprintf(&b, `<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/%s/%s">%s /
    %s</a></h2>
  <p class="col-9 color-fg-muted my-1 pr-4">Simulated trending repository #%d</p>
  <div class="f6 color-fg-muted mt-2">
`, owner, repo, owner, repo, i)
		if lang := mockLanguages[rand.Intn(len(mockLanguages))]; lang != "" {
			fmt.Fprintf(&b, "    <span itemprop=\"programmingLanguage\">%s</span>\n", lang)
		}
		fmt.Fprintf(&b, `    <a class="Link--muted d-inline-block mr-3" href="/%s/%s/stargazers">%s</a>
    <span class="d-inline-block float-sm-right">%s %s</span>
  </div>
</article>
`, owner, repo, withThousands(rand.Intn(90000)), withThousands(rand.Intn(2000)), windowPhrase(target.Window))
	}
	b.WriteString("</div></body></html>")

	return domain.RawPage{
		URL:        TrendingURL("http://localhost", target),
		StatusCode: 200,
		Body:       b.String(),
	}, nil
}

func windowPhrase(w domain.Window) string {
	switch w {
	case domain.Weekly:
		return "stars this week"
	case domain.Monthly:
		return "stars this month"
	default:
		return "stars today"
	}
}

func withThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
