package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeBrowserLaunch  = "BROWSER_LAUNCH_FAILED"
	ErrCodeNavigation     = "NAVIGATION_FAILED"
	ErrCodeElementTimeout = "ELEMENT_TIMEOUT"
	ErrCodeElementMissing = "ELEMENT_NOT_FOUND"
	ErrCodeLoginFailed    = "LOGIN_FAILED"
	ErrCodeTimeout        = "SCRAPE_TIMEOUT"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// Reason is the caller-facing message: the message plus the underlying cause.
func (e *ScrapeError) Reason() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// ToResult converts an internal error to the API-facing ErrorResult for vin.
func (e *ScrapeError) ToResult(vin string) *ErrorResult {
	return &ErrorResult{VIN: vin, Error: e.Reason(), Code: e.Code}
}
