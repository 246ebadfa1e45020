package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a field value that could not be turned into a number
type ParseError struct {
	Field string
	Text  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var windowSuffixes = []string{
	"stars today",
	"stars this week",
	"stars this month",
	"star today",
	"star this week",
	"star this month",
	"stars",
	"star",
}

// ParseCount parses a human formatted count such as "12,345" into an integer.
func ParseCount(field, text string) (int, error) {
	clean := strings.TrimSpace(text)
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	if clean == "" {
		return 0, &ParseError{Field: field, Text: text, Err: fmt.Errorf("empty value")}
	}
	n, err := strconv.Atoi(clean)
	if err != nil {
		return 0, &ParseError{Field: field, Text: text, Err: err}
	}
	if n < 0 {
		return 0, &ParseError{Field: field, Text: text, Err: fmt.Errorf("negative count")}
	}
	return n, nil
}

// TrimWindowPhrase strips the trailing "stars today" style phrase
func TrimWindowPhrase(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	for _, suffix := range windowSuffixes {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(s, suffix))
		}
	}
	return s
}
