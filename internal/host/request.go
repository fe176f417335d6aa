package host

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/assetfetch/internal/fetch"
	"github.com/GriffinCanCode/assetfetch/internal/uri"
	"github.com/gin-gonic/gin"
)

// ErrNoExecutor is returned when a local executable is resolved without an executor
var ErrNoExecutor = errors.New("no local executor configured")

// Executor renders a local executable reference in-process
type Executor interface {
	Execute(ctx context.Context, req *Request, ref string) (string, error)
}

// Options configures a Request
type Options struct {
	AppPath  string // virtual application root, defaults to "/"
	Executor Executor
}

// Request is the resolve environment derived from an inbound HTTP request.
// It is read-only once built.
type Request struct {
	req     *http.Request
	base    *url.URL
	appPath string
	exec    Executor
}

// New wraps an inbound request
func New(r *http.Request, opts Options) (*Request, error) {
	if r == nil || r.URL == nil {
		return nil, errors.New("nil request")
	}

	base := &url.URL{
		Scheme:   "http",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	if r.TLS != nil {
		base.Scheme = "https"
	}
	if r.URL.Scheme != "" {
		base.Scheme = strings.ToLower(r.URL.Scheme)
	}
	if proto := forwardedProto(r); proto != "" {
		base.Scheme = proto
	}
	if base.Host == "" {
		base.Host = r.URL.Host
	}
	if base.Host == "" {
		return nil, fmt.Errorf("request %s has no host", r.URL.Path)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	return &Request{
		req:     r,
		base:    base,
		appPath: normalizeAppPath(opts.AppPath),
		exec:    opts.Executor,
	}, nil
}

// FromGin wraps the request of a gin handler
func FromGin(c *gin.Context, opts Options) (*Request, error) {
	if c == nil {
		return nil, errors.New("nil gin context")
	}
	return New(c.Request, opts)
}

// forwardedProto returns the first X-Forwarded-Proto value when it is http or https
func forwardedProto(r *http.Request) string {
	proto, _, _ := strings.Cut(r.Header.Get("X-Forwarded-Proto"), ",")
	switch proto = strings.ToLower(strings.TrimSpace(proto)); proto {
	case "http", "https":
		return proto
	default:
		return ""
	}
}

func normalizeAppPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// HTTPRequest returns the wrapped request
func (r *Request) HTTPRequest() *http.Request {
	return r.req
}

// BaseURL returns a copy of the absolute URL of the current request
func (r *Request) BaseURL() *url.URL {
	u := *r.base
	return &u
}

// ApplicationPath returns the virtual application root
func (r *Request) ApplicationPath() string {
	return r.appPath
}

// ResolveURL makes ref absolute against the current request, expanding "~/"
func (r *Request) ResolveURL(ref *url.URL) (*url.URL, error) {
	if ref == nil {
		return nil, errors.New("nil reference")
	}
	expanded := *ref
	if !ref.IsAbs() && ref.Host == "" {
		expanded.Path = uri.ToAppAbsolute(ref.Path, r.appPath)
		if expanded.Path != ref.Path {
			expanded.RawPath = ""
		}
	}
	return r.base.ResolveReference(&expanded), nil
}

// IsLocal reports whether u targets this host, by name or via loopback
func (r *Request) IsLocal(u *url.URL) bool {
	if u == nil {
		return false
	}
	h := u.Hostname()
	if h == "" {
		return false
	}
	if strings.EqualFold(h, r.base.Hostname()) {
		return true
	}
	if strings.EqualFold(h, "localhost") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}

// Cookies returns the inbound cookies scoped to the request host
func (r *Request) Cookies() *fetch.CookieSet {
	domain := r.base.Hostname()
	inbound := r.req.Cookies()

	cookies := make([]*fetch.Cookie, 0, len(inbound))
	for _, c := range inbound {
		cookies = append(cookies, fetch.FromHTTPCookie(c, domain))
	}
	return fetch.NewCookieSet(r.BaseURL(), cookies...)
}

// Execute delegates to the configured executor
func (r *Request) Execute(ctx context.Context, ref string) (string, error) {
	if r.exec == nil {
		return "", ErrNoExecutor
	}
	return r.exec.Execute(ctx, r, ref)
}
