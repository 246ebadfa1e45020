package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/qepting91/trending-scraper/internal/domain"
	"github.com/qepting91/trending-scraper/internal/metrics"
)

const (
	entrySelector       = "article.Box-row"
	linkSelector        = "h2.h3 a"
	linkFallback        = "h2 a"
	descriptionSelector = "p"
	languageSelector    = `span[itemprop="programmingLanguage"]`
	starsSelector       = "a.Link--muted"
	windowStarsSelector = "span.d-inline-block.float-sm-right"

	UnknownLanguage = "Unknown"
)

var (
	// ErrMissingLink means an entry had no usable heading link and was skipped
	ErrMissingLink = errors.New("entry has no repository link")
	// ErrBadHref means the heading link could not be parsed as a URL
	ErrBadHref = errors.New("entry has malformed repository link")
)

// TrendingExtractor parses GitHub trending markup.
type TrendingExtractor struct {
	base   *url.URL
	logger *slog.Logger
}

func NewTrendingExtractor(baseURL string, logger *slog.Logger) (*TrendingExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TrendingExtractor{base: base, logger: logger}, nil
}

// Extract returns the records of every well-formed entry in page order.
// Entries that fail are logged and dropped; the page as a whole never fails.
func (e *TrendingExtractor) Extract(page domain.RawPage) []domain.Record {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		e.logger.Error("Failed to parse page markup", "url", page.URL, "err", err)
		return []domain.Record{}
	}

	records := []domain.Record{}
	doc.Find(entrySelector).Each(func(i int, s *goquery.Selection) {
		rec, err := e.extractEntry(i, s)
		if err != nil {
			metrics.EntriesSkippedTotal.WithLabelValues(skipReason(err)).Inc()
			e.logger.Error("Skipping repository entry", "index", i, "err", err)
			return
		}
		records = append(records, rec)
	})
	return records
}

func (e *TrendingExtractor) extractEntry(i int, s *goquery.Selection) (rec domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("entry %d: recovered: %v", i, r)
		}
	}()

	link := s.Find(linkSelector).First()
	if link.Length() == 0 {
		link = s.Find(linkFallback).First()
	}
	href, _ := link.Attr("href")
	name := strings.Join(strings.Fields(link.Text()), "")
	if link.Length() == 0 || strings.TrimSpace(href) == "" || name == "" {
		return domain.Record{}, fmt.Errorf("entry %d: %w", i, ErrMissingLink)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return domain.Record{}, fmt.Errorf("entry %d: %w %q: %w", i, ErrBadHref, href, err)
	}

	language := UnknownLanguage
	if lang := strings.TrimSpace(s.Find(languageSelector).First().Text()); lang != "" {
		language = lang
	}

	return domain.Record{
		Name:          name,
		URL:           e.base.ResolveReference(ref).String(),
		Description:   strings.Join(strings.Fields(s.Find(descriptionSelector).First().Text()), " "),
		Language:      language,
		Stars:         e.countField(name, "stars", s.Find(starsSelector).First(), strings.TrimSpace),
		StarsInWindow: e.countField(name, "stars_in_window", s.Find(windowStarsSelector).First(), TrimWindowPhrase),
	}, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingLink):
		return "missing_link"
	case errors.Is(err, ErrBadHref):
		return "bad_href"
	default:
		return "panic"
	}
}

// countField defaults an absent or malformed count to 0 and logs it.
func (e *TrendingExtractor) countField(repo, field string, sel *goquery.Selection, clean func(string) string) int {
	if sel.Length() == 0 {
		if field == "stars" {
			e.logger.Warn("Star count missing, defaulting to 0", "repo", repo)
		}
		return 0
	}
	n, err := ParseCount(field, clean(sel.Text()))
	if err != nil {
		e.logger.Warn("Malformed count, defaulting to 0", "repo", repo, "err", err)
		return 0
	}
	return n
}
