// Package adapter defines the contract shared by all research methods and the
// error taxonomy the research service uses to decide whether to retry, skip or
// record a failure.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/octobees/contact-finder/internal/entity"
)

// Adapter discovers raw contact candidates for one research method.
type Adapter interface {
	Kind() entity.MethodKind
	// Available returns an *Error with KindMissingAPIKey when the method
	// cannot run for the request, e.g. because no credentials are configured.
	Available(req entity.ResearchRequest) error
	Discover(ctx context.Context, req entity.ResearchRequest) ([]entity.RawContact, error)
}

// ErrorKind classifies adapter failures.
type ErrorKind string

const (
	KindTimeout       ErrorKind = "timeout"
	KindAuthFailure   ErrorKind = "auth_failure"
	KindRateLimited   ErrorKind = "rate_limited"
	KindBlocked       ErrorKind = "blocked"
	KindMissingAPIKey ErrorKind = "missing_api_key"
	KindUnavailable   ErrorKind = "unavailable"
)

// Error is the typed failure returned by adapters.
type Error struct {
	Kind   ErrorKind
	Method entity.MethodKind
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Method, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindRateLimited
}

// NewError wraps err as an adapter failure of the given kind.
func NewError(method entity.MethodKind, kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Method: method, Err: err}
}

// MissingKey reports that the named credential is not configured.
func MissingKey(method entity.MethodKind, what string) *Error {
	return &Error{Kind: KindMissingAPIKey, Method: method, Err: fmt.Errorf("%s not configured", what)}
}

// StatusError is returned by HTTP based adapters for unexpected responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// KindForStatus maps an HTTP status code to an error kind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return KindAuthFailure
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	default:
		return KindUnavailable
	}
}

// Classify converts an arbitrary error into an *Error for method. Errors that
// already carry a kind are returned unchanged.
func Classify(method entity.MethodKind, err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return NewError(method, KindForStatus(statusErr.StatusCode), err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(method, KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(method, KindTimeout, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"), strings.Contains(msg, "resource_exhausted"):
		return NewError(method, KindRateLimited, err)
	case strings.Contains(msg, "401"), strings.Contains(msg, "unauthenticated"), strings.Contains(msg, "permission_denied"), strings.Contains(msg, "invalid api key"):
		return NewError(method, KindAuthFailure, err)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return NewError(method, KindTimeout, err)
	}
	return NewError(method, KindUnavailable, err)
}

// KindOf returns the error kind of err, or "" when err is nil.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	if err == nil {
		return ""
	}
	return KindUnavailable
}

// severity orders kinds for reporting the most relevant of several failures.
var severity = map[ErrorKind]int{
	KindUnavailable:   1,
	KindTimeout:       2,
	KindRateLimited:   3,
	KindBlocked:       4,
	KindAuthFailure:   5,
	KindMissingAPIKey: 6,
}

// MostSevere picks the error that best explains why every call failed.
func MostSevere(errs []*Error) *Error {
	var worst *Error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if worst == nil || severity[e.Kind] > severity[worst.Kind] {
			worst = e
		}
	}
	return worst
}
