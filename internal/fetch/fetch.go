package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

// DefaultUserAgent is sent when no user agent is configured. Many of the
// image hosts reject Go's default client agent outright.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// DefaultMaxBodyBytes caps how much of a response body is read. Anything
// larger than this is not a dataset image.
const DefaultMaxBodyBytes = 64 << 20

// Config holds the fetcher's static configuration. The user agent is
// threaded in here once rather than read from global state.
type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// Result is a successful download: the raw body plus the declared
// Content-Type. The header is a hint only; callers must never trust it for
// the file's actual type.
type Result struct {
	Body        []byte
	ContentType string
}

// Error is a failed download attempt. Transient failures (timeouts,
// connection errors, 5xx) may be retried; permanent ones may not.
type Error struct {
	Detail    string
	Transient bool
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Detail }

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Fetcher issues single HTTP GETs for manifest URLs. One Fetcher serves a
// whole run; it holds no per-row state.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

// New creates a Fetcher from the given configuration.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
}

// Do issues one GET for rawURL and returns the body bytes with the declared
// content type. Every failure mode comes back as a *fetch.Error so the
// caller can decide whether to retry; nothing escapes untyped.
func (f *Fetcher) Do(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{Detail: fmt.Sprintf("malformed URL %q", rawURL), Transient: false, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Detail: fmt.Sprintf("cannot build request: %v", err), Transient: false, Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Referer", refererFor(u))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyRequestError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Detail:    fmt.Sprintf("bad status code %d", resp.StatusCode),
			Transient: isTransientStatus(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, &Error{Detail: fmt.Sprintf("could not read body: %v", err), Transient: true, Cause: err}
	}
	if int64(len(body)) > f.maxBody {
		return nil, &Error{Detail: fmt.Sprintf("response body exceeds %d bytes", f.maxBody), Transient: false}
	}

	return &Result{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
}

// refererFor synthesizes a Referer from the target URL's own origin. Some
// hosts refuse requests without one. Hostnames go through IDNA so
// internationalized domains come out in their punycode form, and fansshare
// hosts need the www. prefix.
func refererFor(u *url.URL) string {
	host := u.Hostname()
	if ascii, err := idna.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	if strings.HasPrefix(host, "fansshare") {
		host = "www." + host
	}
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	return u.Scheme + "://" + host
}

// classifyRequestError maps transport-level errors onto transient or
// permanent failures. Timeouts and connection problems are worth retrying;
// redirect loops are not.
func classifyRequestError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Detail: "request timed out", Transient: true, Cause: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Detail: "request timed out", Transient: true, Cause: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && strings.Contains(urlErr.Err.Error(), "redirects") {
		return &Error{Detail: fmt.Sprintf("too many redirects: %v", urlErr.Err), Transient: false, Cause: err}
	}

	return &Error{Detail: fmt.Sprintf("request failed: %v", err), Transient: true, Cause: err}
}

// isTransientStatus reports whether an HTTP status is worth a retry. 5xx
// plus the rate-limit-like 4xx codes qualify; other 4xx are permanent.
func isTransientStatus(status int) bool {
	if status >= 500 {
		return true
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return false
}
