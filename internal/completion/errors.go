package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// Kind classifies a failed completion call.
type Kind string

const (
	KindTimeout      Kind = "timeout"
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindUpstream     Kind = "upstream"
	KindMalformed    Kind = "malformed"
)

// Error is returned by Client for every failed call.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("completion: %s (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("completion: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the error code reported in handler logs.
func (e *Error) Code() string { return string(e.Kind) }

func (e *Error) retryable() bool {
	switch e.Kind {
	case KindTimeout, KindRateLimited:
		return true
	case KindUpstream:
		return e.Status == 0 || e.Status >= http.StatusInternalServerError
	}
	return false
}

// classify maps transport and API errors onto Kind.
func classify(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: kindForStatus(apiErr.HTTPStatusCode), Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: kindForStatus(reqErr.HTTPStatusCode), Status: reqErr.HTTPStatusCode, Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &Error{Kind: KindMalformed, Err: err}
	}
	return &Error{Kind: KindUpstream, Err: err}
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindUnauthorized
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	}
	return KindUpstream
}

// User-facing replies substituted for a failed completion.
const (
	FallbackRateLimited  = "Извините, сейчас высокая нагрузка. Попробуйте через минуту."
	FallbackUnauthorized = "Ошибка авторизации. Обратитесь к администратору."
	FallbackTimeout      = "Извините, запрос занял слишком много времени. Попробуйте ещё раз."
	FallbackDefault      = "Извините, возникла техническая проблема. Попробуйте позже."
)

// Fallback returns the apology shown to the user instead of a failed completion.
func Fallback(err error) string {
	var ce *Error
	if !errors.As(err, &ce) {
		ce = classify(err)
	}
	switch ce.Kind {
	case KindRateLimited:
		return FallbackRateLimited
	case KindUnauthorized:
		return FallbackUnauthorized
	case KindTimeout:
		return FallbackTimeout
	}
	return FallbackDefault
}
