package telegram

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/m3rciful/travelbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

var errBodyNotReplayable = errors.New("telegram: request body cannot be replayed")

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// longPoll extends the response header timeout so that getUpdates may hang for its full timeout.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout + longPoll,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: defaultClientTimeout + longPoll,
		Transport: &retryTransport{
			base:     transport,
			attempts: defaultRetryAttempts + 1,
			backoff:  defaultRetryBackoff,
		},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts uint
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	first := true
	return retry.DoWithData(
		func() (*http.Response, error) {
			curr := req
			if !first {
				clone, err := rewind(req)
				if err != nil {
					return nil, retry.Unrecoverable(err)
				}
				curr = clone
			}
			first = false
			return base.RoundTrip(curr)
		},
		retry.Context(req.Context()),
		retry.Attempts(t.attempts),
		retry.Delay(t.backoff),
		retry.DelayType(linearDelay),
		retry.RetryIf(netutil.ShouldRetry),
		retry.LastErrorOnly(true),
	)
}

// rewind clones req for another attempt, restoring its body when possible.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

// linearDelay waits backoff*n before the n-th retry.
func linearDelay(n uint, err error, cfg *retry.Config) time.Duration {
	if wait := netutil.RetryAfter(err); wait > 0 {
		return wait
	}
	return retry.FixedDelay(n, err, cfg) * time.Duration(n)
}
