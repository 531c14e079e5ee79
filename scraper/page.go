package scraper

import (
	"context"
	"errors"

	"github.com/use-agent/vehicledesc/models"
)

// ErrElementNotFound is returned by Page methods that locate an element
// without waiting when nothing matches the selector.
var ErrElementNotFound = errors.New("element not found")

// Page is the browser surface the portal flows drive. Selectors are CSS.
//
// Lookups never wait: Has, Fill, Click and Text inspect the current DOM
// once. Waiting is done by the caller through poll.
type Page interface {
	// Navigate loads url and waits for the load event, bounded by the
	// session's page-load timeout.
	Navigate(url string) error

	// Ready reports whether document.readyState is "complete".
	Ready() (bool, error)

	// Has reports whether an element matches selector.
	Has(selector string) (bool, error)

	// Fill clears the matching input and types value into it.
	Fill(selector, value string) error

	// Click clicks the matching element.
	Click(selector string) error

	// Text returns the rendered text of the first matching element.
	// found is false when nothing matches.
	Text(selector string) (text string, found bool, err error)

	// HTML returns the full rendered document.
	HTML() (string, error)

	// Close tears down the whole browser session. It must succeed even
	// after the context passed to Launch has expired.
	Close() error
}

// Launcher creates one exclusively-owned browser session per call.
type Launcher interface {
	Launch(ctx context.Context) (Page, error)
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes. code applies when the error
// is neither a context expiry nor a missing element.
func categorizeError(err error, code, msg string) *models.ScrapeError {
	var scrapeErr *models.ScrapeError
	switch {
	case errors.As(err, &scrapeErr):
		return scrapeErr
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	case errors.Is(err, ErrElementNotFound):
		return models.NewScrapeError(models.ErrCodeElementMissing, msg, err)
	default:
		return models.NewScrapeError(code, msg, err)
	}
}
