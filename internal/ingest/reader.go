package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Regex for valid trending category slugs (go, c++, c#, jupyter-notebook ...)
var categoryRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9+#._-]{0,39}$`)

// AllLanguages is the empty category, i.e. the unfiltered trending page
const AllLanguages = ""

// LoadCategories reads category filters from a CSV with a header row.
// A missing file or a file without valid rows yields only AllLanguages.
func LoadCategories(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{AllLanguages}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var categories []string
	seen := make(map[string]bool)
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 || len(record) == 0 {
			continue // Skip header
		}

		// Validation (Fail-Soft)
		cat := strings.ToLower(strings.TrimSpace(record[0]))
		if cat == "all" || cat == "*" {
			cat = AllLanguages
		} else if !categoryRegex.MatchString(cat) {
			continue
		}
		if seen[cat] {
			continue
		}
		seen[cat] = true
		categories = append(categories, cat)
	}

	if len(categories) == 0 {
		return []string{AllLanguages}, nil
	}
	return categories, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
