package domain

import (
	"context"
	"fmt"
	"time"
)

// Window is the trending time range used to scope a ranking query
type Window string

const (
	Daily   Window = "daily"
	Weekly  Window = "weekly"
	Monthly Window = "monthly"
)

// Windows returns the fixed window set in scrape order
func Windows() []Window {
	return []Window{Daily, Weekly, Monthly}
}

func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case Daily, Weekly, Monthly:
		return w, nil
	default:
		return "", fmt.Errorf("unknown window %q (use 'daily', 'weekly' or 'monthly')", s)
	}
}

// FetchTarget represents a scraping task. Empty Category means all languages.
type FetchTarget struct {
	Window   Window
	Category string
}

func (t FetchTarget) String() string {
	if t.Category == "" {
		return string(t.Window)
	}
	return t.Category + "/" + string(t.Window)
}

// RawPage is the markup returned for a target along with its HTTP status
type RawPage struct {
	URL        string
	StatusCode int
	Body       string
}

// Record is one ranked repository as it appeared on the page
type Record struct {
	Name          string
	URL           string
	Description   string
	Language      string
	Stars         int
	StarsInWindow int
}

// Batch is the output of one fetch-and-extract cycle plus its metadata envelope
type Batch struct {
	CapturedAt time.Time
	Window     Window
	Category   string
	Records    []Record
}

func (b Batch) Count() int {
	return len(b.Records)
}

// Fetcher retrieves the raw ranking page for a target
type Fetcher interface {
	Fetch(ctx context.Context, target FetchTarget) (RawPage, error)
}

// Extractor turns a raw page into records, dropping entries it cannot parse
type Extractor interface {
	Extract(page RawPage) []Record
}

// Sink persists a batch and reports where it went
type Sink interface {
	Save(batch Batch) (string, error)
}
