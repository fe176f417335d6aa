package uri

import (
	"fmt"
	"net/url"
	"strings"
)

// Classification describes how a reference is handled
type Classification int

const (
	Invalid Classification = iota
	LocalExecutable
	InternalHandler
	External
)

// String returns the string representation of the classification
func (c Classification) String() string {
	switch c {
	case Invalid:
		return "invalid"
	case LocalExecutable:
		return "local-executable"
	case InternalHandler:
		return "internal-handler"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// Env is the slice of the host environment classification depends on.
type Env interface {
	// ApplicationPath is the virtual root of the application, e.g. "/" or "/app"
	ApplicationPath() string
	// ResolveURL makes a reference absolute against the current request
	ResolveURL(ref *url.URL) (*url.URL, error)
	// IsLocal reports whether an absolute URL points back at this application
	IsLocal(u *url.URL) bool
}

// Options configures the classifier
type Options struct {
	ExecutableSuffix string // relative paths ending with this are executed in-process
	HandlerPath      string // route under the application path that is always trusted
}

// DefaultOptions returns the conventional page suffix and resource handler route
func DefaultOptions() Options {
	return Options{
		ExecutableSuffix: ".aspx",
		HandlerPath:      "/webresource.axd",
	}
}

// Reference is a parsed and classified resource reference
type Reference struct {
	Original string
	Parsed   *url.URL
	Absolute *url.URL // nil for Invalid and LocalExecutable
	Class    Classification
	Reason   string // why a reference is Invalid
}

// Classifier decides how references are resolved. It holds no mutable state.
type Classifier struct {
	opts Options
}

// New creates a classifier, filling blank options with defaults
func New(opts Options) *Classifier {
	defaults := DefaultOptions()
	if opts.ExecutableSuffix == "" {
		opts.ExecutableSuffix = defaults.ExecutableSuffix
	}
	if opts.HandlerPath == "" {
		opts.HandlerPath = defaults.HandlerPath
	}
	if !strings.HasPrefix(opts.HandlerPath, "/") {
		opts.HandlerPath = "/" + opts.HandlerPath
	}
	return &Classifier{opts: opts}
}

// Options returns the effective options
func (c *Classifier) Options() Options {
	return c.opts
}

// Classify returns the classification of ref in env
func (c *Classifier) Classify(ref string, env Env) Classification {
	return c.Analyze(ref, env).Class
}

// Analyze parses, classifies and, where applicable, resolves ref
func (c *Classifier) Analyze(ref string, env Env) Reference {
	r := Reference{Original: ref}

	parsed, err := Parse(ref)
	if err != nil {
		r.Reason = err.Error()
		return r
	}
	r.Parsed = parsed

	if !parsed.IsAbs() && parsed.Host == "" {
		if c.isExecutable(parsed) {
			r.Class = LocalExecutable
			return r
		}
		if c.isHandler(parsed, env.ApplicationPath()) {
			abs, err := resolve(parsed, env)
			if err != nil {
				r.Reason = err.Error()
				return r
			}
			r.Absolute = abs
			r.Class = InternalHandler
			return r
		}
	}

	abs, err := resolve(parsed, env)
	if err != nil {
		r.Reason = err.Error()
		return r
	}
	r.Absolute = abs

	if env.IsLocal(abs) {
		r.Class = InternalHandler
	} else {
		r.Class = External
	}
	return r
}

func (c *Classifier) isExecutable(u *url.URL) bool {
	return hasSuffixFold(u.Path, c.opts.ExecutableSuffix)
}

func (c *Classifier) isHandler(u *url.URL, appPath string) bool {
	prefix := strings.TrimRight(appPath, "/") + c.opts.HandlerPath
	p := ToAppAbsolute(u.Path, appPath)
	return hasPrefixFold(p, prefix)
}

// Parse parses a reference, rejecting blanks and non-HTTP absolute schemes
func Parse(ref string) (*url.URL, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("empty reference")
	}

	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("unparseable reference: %w", err)
	}

	if u.IsAbs() {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
		default:
			return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		if u.Hostname() == "" {
			return nil, fmt.Errorf("absolute reference has no host")
		}
	}

	return u, nil
}

// ToAppAbsolute expands a "~/" virtual path against the application path.
// Other paths are returned unchanged.
func ToAppAbsolute(p, appPath string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		return strings.TrimRight(appPath, "/") + "/" + strings.TrimPrefix(strings.TrimPrefix(p, "~"), "/")
	}
	return p
}

func resolve(u *url.URL, env Env) (*url.URL, error) {
	abs, err := env.ResolveURL(u)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve reference: %w", err)
	}
	if abs == nil || !abs.IsAbs() || abs.Hostname() == "" {
		return nil, fmt.Errorf("reference did not resolve to an absolute URL")
	}
	return abs, nil
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
