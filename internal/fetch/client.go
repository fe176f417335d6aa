package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/GriffinCanCode/assetfetch/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/assetfetch/internal/logging"
	"github.com/GriffinCanCode/assetfetch/internal/shared/id"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

var (
	// ErrHTTPStatus matches any non-2xx response
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrRedirectRejected wraps the error returned by Request.CheckRedirect
	ErrRedirectRejected = errors.New("redirect rejected")

	errCallerDone = errors.New("caller context done")
)

// StatusError reports a non-2xx response
type StatusError struct {
	URL    string
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Is matches ErrHTTPStatus
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Options configures a Fetcher
type Options struct {
	Timeout         time.Duration // 0 disables the client timeout
	UserAgent       string
	RateLimit       float64 // requests per second, 0 = unlimited
	Breaker         bool
	BreakerFailures uint32 // consecutive failures that open the breaker
	Charset         Charset
	Username        string
	Password        string
	MaxRedirects    int
	Transport       http.RoundTripper // nil uses a shared pooled transport
}

// DefaultOptions returns single-attempt settings with a 100s timeout
func DefaultOptions() Options {
	return Options{
		Timeout:         100 * time.Second,
		UserAgent:       "assetfetch/1.0",
		BreakerFailures: 5,
		Charset:         CharsetUTF8,
		MaxRedirects:    10,
	}
}

// Request describes one fetch
type Request struct {
	URL     string
	Cookies *CookieSet
	// CheckRedirect vets every redirect target; returning an error aborts the fetch
	CheckRedirect func(target *url.URL) error
}

// Response is the decoded result of a fetch
type Response struct {
	Content     string
	ContentType string
	StatusCode  int
	Size        int
	Duration    time.Duration
}

// Fetcher performs single-attempt GETs. Safe for concurrent use: each fetch
// gets its own resty client and cookie jar over a shared pooled transport.
type Fetcher struct {
	opts      Options
	transport http.RoundTripper
	limiter   *rate.Limiter
	breaker   *resilience.Breaker
	log       logging.Sink
}

// New creates a fetcher. A nil sink discards diagnostics.
func New(opts Options, log logging.Sink) *Fetcher {
	defaults := DefaultOptions()
	if opts.Charset == "" {
		opts.Charset = defaults.Charset
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaults.MaxRedirects
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaults.BreakerFailures
	}

	f := &Fetcher{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Inf, 0), // Unlimited by default
		log:     logging.Guard(log),
	}

	f.transport = opts.Transport
	if f.transport == nil {
		// Pooled transport only; retries stay disabled
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = 0
		retryClient.Logger = nil
		f.transport = retryClient.HTTPClient.Transport
	}

	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	if opts.Breaker {
		threshold := opts.BreakerFailures
		f.breaker = resilience.New("asset-fetch", resilience.Settings{
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsFailure: countsAgainstBreaker,
			OnStateChange: func(name string, from, to resilience.State) {
				f.log.Warn(fmt.Sprintf("circuit breaker %s: %s -> %s", name, from, to))
			},
		})
	}

	return f
}

// countsAgainstBreaker ignores caller cancellation, rejected redirects and
// client errors
func countsAgainstBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, errCallerDone) || errors.Is(err, ErrRedirectRejected) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

// Options returns the effective options
func (f *Fetcher) Options() Options {
	return f.opts
}

// Breaker returns the circuit breaker, nil when disabled
func (f *Fetcher) Breaker() *resilience.Breaker {
	return f.breaker
}

// Fetch GETs uri, replaying cookies, and returns the decoded text without a
// leading byte-order mark.
func (f *Fetcher) Fetch(ctx context.Context, uri string, cookies *CookieSet) (string, error) {
	resp, err := f.Do(ctx, Request{URL: uri, Cookies: cookies})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Do executes a single GET. There are no retries: any transport error or
// non-2xx status is returned as an error.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid fetch URL: %w", err)
	}
	if !target.IsAbs() || target.Hostname() == "" {
		return nil, fmt.Errorf("fetch URL must be absolute: %q", req.URL)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	client, err := f.newClient(req)
	if err != nil {
		return nil, err
	}

	fid := id.NewFetchID()
	f.log.Debug(fmt.Sprintf("GET %s (%d cookies) [%s]", target.Redacted(), req.Cookies.Len(), fid))

	get := func() (*resty.Response, error) {
		resp, err := client.R().SetContext(ctx).Get(target.String())
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("GET %s: %w: %w", target.Redacted(), errCallerDone, err)
			}
			return nil, fmt.Errorf("GET %s: %w", target.Redacted(), err)
		}
		if !resp.IsSuccess() {
			return nil, &StatusError{URL: target.Redacted(), Code: resp.StatusCode(), Status: resp.Status()}
		}
		return resp, nil
	}

	var resp *resty.Response
	if f.breaker != nil {
		// ErrCircuitOpen and ErrTooManyRequests stay matchable through %w
		resp, err = resilience.Execute(f.breaker, get)
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			return nil, fmt.Errorf("GET %s: %w", target.Redacted(), err)
		}
	} else {
		resp, err = get()
	}
	if err != nil {
		f.log.Debug(fmt.Sprintf("GET %s failed [%s]", target.Redacted(), fid))
		return nil, err
	}

	body := resp.Body()
	contentType := resp.Header().Get("Content-Type")

	if f.opts.Charset == CharsetUTF8 {
		if guess := SniffCharset(body); guess != "" {
			f.log.Warn(fmt.Sprintf("response from %s is not valid UTF-8 (looks like %s); decoding as UTF-8", target.Redacted(), guess))
		}
	}

	content, err := Decode(body, contentType, f.opts.Charset)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target.Redacted(), err)
	}

	return &Response{
		Content:     content,
		ContentType: contentType,
		StatusCode:  resp.StatusCode(),
		Size:        len(body),
		Duration:    resp.Time(),
	}, nil
}

// newClient builds the per-fetch client and cookie scope
func (f *Fetcher) newClient(req Request) (*resty.Client, error) {
	jar, err := req.Cookies.Jar()
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	maxRedirects := f.opts.MaxRedirects
	hc := &http.Client{
		Transport: f.transport,
		Jar:       jar,
		Timeout:   f.opts.Timeout,
		CheckRedirect: func(r *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if req.CheckRedirect != nil {
				if err := req.CheckRedirect(r.URL); err != nil {
					return fmt.Errorf("%w: %w", ErrRedirectRejected, err)
				}
			}
			return nil
		},
	}

	client := resty.NewWithClient(hc).
		SetRetryCount(0).
		SetLogger(restyLogger{log: f.log}).
		SetHeader("User-Agent", f.opts.UserAgent)

	if f.opts.Username != "" {
		client.SetBasicAuth(f.opts.Username, f.opts.Password)
	}

	return client, nil
}

// restyLogger keeps resty's own messages at debug level; failures are
// reported once by the caller
type restyLogger struct {
	log logging.Sink
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Debug("resty: " + fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Debug("resty: " + fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug("resty: " + fmt.Sprintf(format, v...))
}
