package collector

import (
	"errors"
	"fmt"

	"github.com/qepting91/trending-scraper/internal/domain"
)

// ErrUnexpectedStatus marks a non-2xx response
var ErrUnexpectedStatus = errors.New("unexpected http status")

// FetchError is returned once every attempt for a target has failed
type FetchError struct {
	Target   domain.FetchTarget
	Reason   string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %s: %v", e.Target, e.Attempts, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
