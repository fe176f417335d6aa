package fetch

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Cookie is an inbound request cookie to be replayed on an outbound fetch
type Cookie struct {
	Name    string
	Value   string
	Domain  string
	Path    string
	Secure  bool
	Expires time.Time // zero means a session cookie
}

// FromHTTPCookie converts a request cookie, stamping it with domain.
// Request cookies carry only name and value, so the remaining fields come
// from the originating request.
func FromHTTPCookie(c *http.Cookie, domain string) *Cookie {
	if c == nil {
		return nil
	}
	d := c.Domain
	if d == "" {
		d = domain
	}
	return &Cookie{
		Name:    c.Name,
		Value:   c.Value,
		Domain:  d,
		Path:    c.Path,
		Secure:  c.Secure,
		Expires: c.Expires,
	}
}

func (c *Cookie) httpCookie() *http.Cookie {
	return &http.Cookie{
		Name:    c.Name,
		Value:   c.Value,
		Domain:  c.Domain,
		Path:    c.Path,
		Secure:  c.Secure,
		Expires: c.Expires,
	}
}

// CookieSet is the cookie scope of a single fetch: the cookies of the
// current request and the application URL they were received on.
type CookieSet struct {
	Origin  *url.URL
	Cookies []*Cookie
}

// NewCookieSet builds a set for origin
func NewCookieSet(origin *url.URL, cookies ...*Cookie) *CookieSet {
	return &CookieSet{Origin: origin, Cookies: cookies}
}

// Len returns the number of usable cookies
func (s *CookieSet) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.Cookies {
		if c != nil && c.Name != "" {
			n++
		}
	}
	return n
}

// Jar returns a fresh cookie jar holding the set. Cookies that are nil,
// nameless, or whose domain does not match the origin are skipped.
func (s *CookieSet) Jar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	if s == nil || s.Origin == nil || s.Origin.Host == "" {
		return jar, nil
	}

	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		if c == nil || c.Name == "" {
			continue
		}
		cookies = append(cookies, c.httpCookie())
	}
	if len(cookies) == 0 {
		return jar, nil
	}

	scheme := s.Origin.Scheme
	if scheme == "" {
		scheme = "http"
	}
	jar.SetCookies(&url.URL{Scheme: scheme, Host: s.Origin.Host, Path: "/"}, cookies)
	return jar, nil
}
