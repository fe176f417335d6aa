package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/GriffinCanCode/assetfetch/internal/allowlist"
	"github.com/GriffinCanCode/assetfetch/internal/fetch"
	"github.com/GriffinCanCode/assetfetch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/assetfetch/internal/logging"
	"github.com/GriffinCanCode/assetfetch/internal/shared/id"
	"github.com/GriffinCanCode/assetfetch/internal/uri"
)

// Env is the host environment of one resolve: the current request.
type Env interface {
	uri.Env
	// Cookies returns the inbound cookies to replay on outbound fetches
	Cookies() *fetch.CookieSet
	// Execute renders a local executable reference in-process
	Execute(ctx context.Context, ref string) (string, error)
}

// Fetcher performs the outbound GET
type Fetcher interface {
	Do(ctx context.Context, req fetch.Request) (*fetch.Response, error)
}

// Result is the outcome of Resolve. Callers must check Success: a failed
// resolve and an empty resource both have empty Content.
type Result struct {
	Content     string
	ResolvedURI string // "" unless Success
	Success     bool
	Kind        Kind  // None on success
	Err         error // *Error on failure
}

// Config wires a Resolver
type Config struct {
	Classifier *uri.Classifier
	Fetcher    Fetcher
	Logger     logging.Sink
	Metrics    *monitoring.Metrics
}

// Resolver turns asset references into content. Safe for concurrent use.
type Resolver struct {
	classifier *uri.Classifier
	fetcher    Fetcher
	log        logging.Sink
	metrics    *monitoring.Metrics
}

// New creates a resolver. Nil collaborators are replaced with defaults.
func New(cfg Config) *Resolver {
	r := &Resolver{
		classifier: cfg.Classifier,
		fetcher:    cfg.Fetcher,
		log:        logging.Guard(cfg.Logger),
		metrics:    cfg.Metrics,
	}
	if r.classifier == nil {
		r.classifier = uri.New(uri.DefaultOptions())
	}
	if r.fetcher == nil {
		r.fetcher = fetch.New(fetch.DefaultOptions(), r.log)
	}
	return r
}

// Resolve classifies ref, checks it against the allow-list entries and
// returns its content. It never panics or returns an error for expected
// failures; every failure is logged exactly once at Error level.
func (r *Resolver) Resolve(ctx context.Context, env Env, ref string, entries []string) Result {
	rid := id.NewResolveID()
	timer := monitoring.NewTimer(r.metrics)

	r.log.Debug(fmt.Sprintf("resolving %q [%s]", ref, rid))

	res := r.resolve(ctx, env, ref, entries, timer)

	outcome := monitoring.OutcomeSuccess
	if !res.Success {
		outcome = res.Kind.String()
	}
	timer.Stop(outcome)
	return res
}

func (r *Resolver) resolve(ctx context.Context, env Env, ref string, entries []string, timer *monitoring.Timer) Result {
	if env == nil {
		return r.fail(InvalidReference, ref, errors.New("no host environment"),
			fmt.Sprintf("could not load file contents from %s: no request context", ref))
	}

	target := r.classifier.Analyze(ref, env)
	timer.Classify(target.Class.String())

	switch target.Class {
	case uri.Invalid:
		return r.fail(InvalidReference, ref, errors.New(target.Reason),
			fmt.Sprintf("could not load file contents from %s: invalid reference", ref))

	case uri.LocalExecutable:
		content, err := r.execute(ctx, env, ref)
		if err != nil {
			if ctx.Err() != nil {
				return r.fail(Canceled, ref, err, fmt.Sprintf("execution of %s canceled", ref))
			}
			return r.fail(ExecutionError, ref, err, fmt.Sprintf("could not execute %s", ref))
		}
		return Result{Content: content, ResolvedURI: ref, Success: true}
	}

	abs := target.Absolute
	if target.Class == uri.External {
		if ok, authority := approve(abs, entries); !ok {
			r.metrics.IncRejections()
			return r.fail(DomainNotApproved, ref, nil,
				fmt.Sprintf("could not load file contents from %s: domain %s is not allow-listed", ref, authority))
		}
	}

	req := fetch.Request{URL: abs.String(), Cookies: env.Cookies()}
	if target.Class == uri.External {
		req.CheckRedirect = redirectPolicy(env, entries)
	}

	resp, err := r.fetcher.Do(ctx, req)
	r.recordFetch(resp, err)
	if err != nil {
		var rejected *Error
		switch {
		case errors.As(err, &rejected) && rejected.Kind == DomainNotApproved:
			r.metrics.IncRejections()
			return r.fail(DomainNotApproved, ref, nil,
				fmt.Sprintf("could not load file contents from %s: redirect to %s is not allow-listed", ref, rejected.Reference))
		case ctx.Err() != nil || errors.Is(err, context.Canceled):
			return r.fail(Canceled, ref, err, fmt.Sprintf("fetch of %s (%s) canceled", ref, abs.Redacted()))
		default:
			return r.fail(NetworkError, ref, err, fmt.Sprintf("could not load file contents from %s (%s)", ref, abs.Redacted()))
		}
	}

	return Result{Content: resp.Content, ResolvedURI: abs.String(), Success: true}
}

// Fetch GETs an absolute URI with the environment's cookies, bypassing
// classification and the allow-list.
func (r *Resolver) Fetch(ctx context.Context, env Env, rawURI string) (string, error) {
	req := fetch.Request{URL: rawURI}
	if env != nil {
		req.Cookies = env.Cookies()
	}
	resp, err := r.fetcher.Do(ctx, req)
	r.recordFetch(resp, err)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// execute runs the host delegate, turning a panic into an error
func (r *Resolver) execute(ctx context.Context, env Env, ref string) (content string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("execution panicked: %v", p)
		}
	}()
	return env.Execute(ctx, ref)
}

// fail logs one Error line and builds the failed result
func (r *Resolver) fail(kind Kind, ref string, cause error, msg string) Result {
	r.log.Error(msg, cause)
	return Result{
		Kind: kind,
		Err:  &Error{Kind: kind, Reference: ref, Err: cause},
	}
}

func (r *Resolver) recordFetch(resp *fetch.Response, err error) {
	if r.metrics == nil {
		return
	}
	if err == nil {
		r.metrics.RecordFetch(strconv.Itoa(resp.StatusCode), resp.Duration, resp.Size)
		return
	}
	var se *fetch.StatusError
	if errors.As(err, &se) {
		r.metrics.RecordFetch(strconv.Itoa(se.Code), 0, -1)
		return
	}
	r.metrics.RecordFetch("error", 0, -1)
}

// approve checks an absolute URL against the entries
func approve(u *url.URL, entries []string) (bool, string) {
	authority, err := allowlist.Authority(u)
	if err != nil {
		return false, u.Host
	}
	return allowlist.Approve(authority, entries), authority
}

// redirectPolicy re-applies the allow-list to every redirect target that
// leaves the application
func redirectPolicy(env Env, entries []string) func(*url.URL) error {
	return func(target *url.URL) error {
		if env.IsLocal(target) {
			return nil
		}
		if ok, authority := approve(target, entries); !ok {
			return &Error{Kind: DomainNotApproved, Reference: authority}
		}
		return nil
	}
}
