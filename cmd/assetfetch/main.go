package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/assetfetch/internal/config"
	"github.com/GriffinCanCode/assetfetch/internal/fetch"
	"github.com/GriffinCanCode/assetfetch/internal/host"
	"github.com/GriffinCanCode/assetfetch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/assetfetch/internal/logging"
	"github.com/GriffinCanCode/assetfetch/internal/resolver"
	"github.com/GriffinCanCode/assetfetch/internal/uri"
	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus"
)

// multiFlag collects a repeatable string flag
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// output is the JSON form of one resolve
type output struct {
	Reference   string `json:"reference"`
	Success     bool   `json:"success"`
	ResolvedURI string `json:"resolved_uri,omitempty"`
	Kind        string `json:"kind,omitempty"`
	Error       string `json:"error,omitempty"`
	Content     string `json:"content"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("assetfetch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML or TOML config file (default: environment)")
	base := fs.String("base", "http://localhost/", "URL of the request references are resolved for")
	appPath := fs.String("app-path", "/", "Virtual application path")
	root := fs.String("root", "", "Physical application root for local executables")
	asJSON := fs.Bool("json", false, "Print results as JSON")
	stats := fs.Bool("stats", false, "Print resolve statistics to stderr")
	var cookies, allow multiFlag
	fs.Var(&cookies, "cookie", "Request cookie name=value (repeatable)")
	fs.Var(&allow, "allow", "Additional allow-listed domain, e.g. .example.com:443 (repeatable)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: assetfetch [flags] reference...")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "assetfetch: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Fprintf(stderr, "assetfetch: %v\n", err)
		return 1
	}
	defer logger.Sync()
	sink := logger.Sink()

	for _, w := range cfg.AllowList.Warnings {
		sink.Warn(w)
	}

	domains := cfg.AllowedDomains()
	if len(allow) > 0 {
		var warnings []string
		domains, warnings = domains.Extend(allow, cfg.AllowList.Legacy)
		for _, w := range warnings {
			sink.Warn(w)
		}
	}
	sink.Debug(fmt.Sprintf("%d allow-listed domains", domains.Len()))

	req, err := newRequest(ctx, *base, cookies)
	if err != nil {
		fmt.Fprintf(stderr, "assetfetch: %v\n", err)
		return 1
	}

	opts := host.Options{AppPath: *appPath}
	if *root != "" {
		opts.Executor = host.FileExecutor{Paths: host.NewPathResolver(*root, *appPath, req.URL.Path)}
	}
	env, err := host.New(req, opts)
	if err != nil {
		fmt.Fprintf(stderr, "assetfetch: %v\n", err)
		return 1
	}

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	r := resolver.New(resolver.Config{
		Classifier: uri.New(cfg.ClassifierOptions()),
		Fetcher:    fetch.New(cfg.FetchOptions(), sink),
		Logger:     sink,
		Metrics:    metrics,
	})

	code := 0
	results := make([]output, 0, fs.NArg())
	for _, ref := range fs.Args() {
		res := r.Resolve(ctx, env, ref, domains.Entries())
		if !res.Success {
			code = 1
		}
		results = append(results, toOutput(ref, res))
	}

	if *asJSON {
		data, err := sonic.MarshalIndent(results, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "assetfetch: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		for _, o := range results {
			if o.Success {
				fmt.Fprint(stdout, o.Content)
			} else {
				fmt.Fprintf(stderr, "assetfetch: %s: %s\n", o.Reference, o.Error)
			}
		}
	}

	if *stats {
		s := metrics.Snapshot()
		fmt.Fprintf(stderr, "resolves=%d failures=%d fetches=%d fetch_seconds=%.3f\n",
			s.Resolves, s.Failures, s.Fetches, s.FetchDuration)
	}

	return code
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// newRequest builds the inbound request references are resolved against
func newRequest(ctx context.Context, base string, cookies []string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid -base: %w", err)
	}
	for _, c := range cookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid -cookie %q (must be: name=value)", c)
		}
		req.AddCookie(&http.Cookie{Name: strings.TrimSpace(name), Value: value})
	}
	return req, nil
}

func toOutput(ref string, res resolver.Result) output {
	o := output{
		Reference:   ref,
		Success:     res.Success,
		ResolvedURI: res.ResolvedURI,
		Content:     res.Content,
	}
	if !res.Success {
		o.Kind = res.Kind.String()
		if res.Err != nil {
			o.Error = res.Err.Error()
		}
	}
	return o
}
