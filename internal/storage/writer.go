package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/trending-scraper/internal/domain"
	"github.com/qepting91/trending-scraper/internal/metrics"
)

const fileTimeLayout = "20060102_150405"

// snapshot is the on-disk layout. Star counts stay strings for compatibility
// with the files already collected.
type snapshot struct {
	Timestamp    string       `json:"timestamp"`
	TimeRange    string       `json:"time_range"`
	Category     string       `json:"category,omitempty"`
	Count        int          `json:"count"`
	Repositories []repository `json:"repositories"`
}

type repository struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Stars       string `json:"stars"`
	StarsToday  string `json:"stars_today"`
}

// SnapshotWriter implements domain.Sink by writing one JSON file per batch
type SnapshotWriter struct {
	Dir    string
	Logger *slog.Logger
}

func (w *SnapshotWriter) Save(batch domain.Batch) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	data, err := Marshal(batch)
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, FileName(batch))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	metrics.SnapshotsWrittenTotal.WithLabelValues(string(batch.Window)).Inc()
	if w.Logger != nil {
		w.Logger.Info("Snapshot saved", "path", path, "count", batch.Count())
	}
	return path, nil
}

// FileName encodes the window, optional category and capture time
func FileName(batch domain.Batch) string {
	parts := []string{"github_trending", string(batch.Window)}
	if batch.Category != "" {
		// Escaped so c, c++ and c# stay distinct
		parts = append(parts, url.QueryEscape(strings.ToLower(batch.Category)))
	}
	parts = append(parts, batch.CapturedAt.Format(fileTimeLayout))
	return strings.Join(parts, "_") + ".json"
}

func Marshal(batch domain.Batch) ([]byte, error) {
	snap := snapshot{
		Timestamp:    batch.CapturedAt.Format(time.RFC3339Nano),
		TimeRange:    string(batch.Window),
		Category:     batch.Category,
		Count:        batch.Count(),
		Repositories: make([]repository, 0, len(batch.Records)),
	}
	for _, r := range batch.Records {
		snap.Repositories = append(snap.Repositories, repository{
			Name:        r.Name,
			URL:         r.URL,
			Description: r.Description,
			Language:    r.Language,
			Stars:       strconv.Itoa(r.Stars),
			StarsToday:  strconv.Itoa(r.StarsInWindow),
		})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte) (domain.Batch, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Batch{}, fmt.Errorf("decode snapshot: %w", err)
	}
	window, err := domain.ParseWindow(snap.TimeRange)
	if err != nil {
		return domain.Batch{}, err
	}
	captured, err := time.Parse(time.RFC3339Nano, snap.Timestamp)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("decode timestamp: %w", err)
	}

	batch := domain.Batch{
		CapturedAt: captured,
		Window:     window,
		Category:   snap.Category,
		Records:    make([]domain.Record, 0, len(snap.Repositories)),
	}
	for _, r := range snap.Repositories {
		// Older files may carry unparseable counts; treat them as zero
		stars, _ := strconv.Atoi(strings.ReplaceAll(r.Stars, ",", ""))
		today, _ := strconv.Atoi(strings.ReplaceAll(r.StarsToday, ",", ""))
		batch.Records = append(batch.Records, domain.Record{
			Name:          r.Name,
			URL:           r.URL,
			Description:   r.Description,
			Language:      r.Language,
			Stars:         stars,
			StarsInWindow: today,
		})
	}
	return batch, nil
}

func ReadSnapshot(path string) (domain.Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Batch{}, err
	}
	return Unmarshal(data)
}

// LatestSnapshot returns the newest all-languages snapshot for a window.
func LatestSnapshot(dir string, window domain.Window) (string, error) {
	pattern := regexp.MustCompile(`^github_trending_` + regexp.QuoteMeta(string(window)) + `_\d{8}_\d{6}\.json$`)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && pattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", os.ErrNotExist
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
