// Package service defines the contract between resxlate and a remote
// translation backend, plus the error type every backend reports failures
// with.
//
// A backend only has to translate one piece of text into one target
// language. Everything else (markup handling, batching, progress) is done
// by the callers in markup, translate and quality.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Auto asks the backend to detect the source language itself.
const Auto = "auto"

// Service translates a single text.
type Service interface {
	// Translate returns text translated into targetLang. sourceLang may be
	// Auto. Failures are reported as *Error.
	Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error)
}

// Func adapts an ordinary function to the Service interface.
type Func func(ctx context.Context, text, targetLang, sourceLang string) (string, error)

// Translate calls f.
func (f Func) Translate(ctx context.Context, text, targetLang, sourceLang string) (string, error) {
	return f(ctx, text, targetLang, sourceLang)
}

// Identity returns every text unchanged.
var Identity = Func(func(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
})

// SourceOrAuto returns Auto for an empty source language.
func SourceOrAuto(lang string) string {
	if lang == "" {
		return Auto
	}
	return lang
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// Well-known error codes. Backends may use their own codes as well.
const (
	CodeUnknown     = "unknown"
	CodeTransport   = "transport"
	CodeRateLimit   = "rate_limited"
	CodeQuota       = "quota_exceeded"
	CodeAuth        = "unauthorized"
	CodeBadLanguage = "invalid_language"
	CodeBadResponse = "bad_response"
)

// Error is a failed call to the translation backend.
type Error struct {
	// Code is the backend error code (numeric codes are kept as strings).
	Code string
	// Message is the backend's human-readable message.
	Message string
	// Status is the HTTP status, 0 for non-HTTP backends.
	Status int
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return "translation service: " + e.Message
	}
	return fmt.Sprintf("translation service error %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeTransport, CodeRateLimit:
		return true
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Wrap converts err into a *Error, keeping it as is when it already is one.
// Context cancellation is returned unchanged so callers can tell an
// interrupted run from a failing backend.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Code: CodeUnknown, Message: err.Error(), Err: err}
}

// IsRetryable reports whether err is a service failure worth retrying.
func IsRetryable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return false
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var se *Error
	ok := errors.As(err, &se)
	return se, ok
}
