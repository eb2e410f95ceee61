package resilience

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// RateLimitError marks a rejection the remote service wants retried later.
// RetryAfter carries the server-supplied wait hint when one was present,
// zero otherwise.
type RateLimitError struct {
	Err        error
	StatusCode int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError wraps err as a rate-limit rejection, extracting a wait
// hint from the error text when the server embedded one.
func NewRateLimitError(err error, statusCode int) *RateLimitError {
	hint, _ := ParseRetryAfter(err.Error())
	return &RateLimitError{Err: err, StatusCode: statusCode, RetryAfter: hint}
}

// IsRateLimit reports whether err (or any error in its chain) is a
// rate-limit rejection.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// ExhaustedRetriesError reports that the retry ceiling was reached while the
// service kept rejecting with rate limits.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// IsExhausted reports whether err is an exhausted-retries failure.
func IsExhausted(err error) bool {
	var ere *ExhaustedRetriesError
	return errors.As(err, &ere)
}

// retryHintPatterns match the wait-time phrasings observed in provider
// error bodies, e.g. "retry after 12 seconds", "Please retry in 26.4s",
// "try again in 30s".
var retryHintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)retry[- ]after[:\s]+(\d+(?:\.\d+)?)\s*s?`),
	regexp.MustCompile(`(?i)retry in\s+(\d+(?:\.\d+)?)\s*s`),
	regexp.MustCompile(`(?i)try again in\s+(\d+(?:\.\d+)?)\s*s`),
	regexp.MustCompile(`(?i)after\s+(\d+(?:\.\d+)?)\s*seconds`),
}

// ParseRetryAfter extracts a server-supplied wait hint from an error body.
func ParseRetryAfter(body string) (time.Duration, bool) {
	for _, re := range retryHintPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			secs, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return time.Duration(secs * float64(time.Second)), true
		}
	}
	return 0, false
}
