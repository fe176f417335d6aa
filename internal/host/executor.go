package host

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/assetfetch/internal/uri"
)

// HandlerExecutor renders a reference by dispatching a GET through an
// in-process handler, such as a gin engine. The inbound request's headers,
// cookies included, are carried over.
type HandlerExecutor struct {
	Handler http.Handler
}

// Execute implements Executor
func (e HandlerExecutor) Execute(ctx context.Context, req *Request, ref string) (string, error) {
	if e.Handler == nil {
		return "", ErrNoExecutor
	}

	parsed, err := uri.Parse(ref)
	if err != nil {
		return "", err
	}
	target, err := req.ResolveURL(parsed)
	if err != nil {
		return "", err
	}

	inner, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", ref, err)
	}
	if parent := req.HTTPRequest(); parent != nil {
		inner.Header = parent.Header.Clone()
		inner.RemoteAddr = parent.RemoteAddr
		inner.TLS = parent.TLS
	}
	inner.Host = target.Host

	rec := httptest.NewRecorder()
	e.Handler.ServeHTTP(rec, inner)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec.Code >= http.StatusBadRequest {
		return "", fmt.Errorf("execute %s: status %d", ref, rec.Code)
	}
	return rec.Body.String(), nil
}

// FileExecutor renders a reference by reading the file it maps to under
// the physical application root.
type FileExecutor struct {
	Paths PathResolver
}

// Execute implements Executor
func (e FileExecutor) Execute(ctx context.Context, req *Request, ref string) (string, error) {
	parsed, err := uri.Parse(ref)
	if err != nil {
		return "", err
	}

	full := e.Paths.FullPath(parsed.Path)
	if !e.Paths.Contains(full) {
		return "", fmt.Errorf("%s maps outside the application root", ref)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", ref, err)
	}
	return string(data), nil
}

// PathResolver maps virtual paths to physical files
type PathResolver struct {
	PhysicalRoot string // physical directory of the application root
	AppPath      string // virtual application root, e.g. "/app"
	CurrentDir   string // physical directory of the current file
}

// NewPathResolver builds a resolver whose current directory is that of
// origURL, the virtual path of the file being processed.
func NewPathResolver(physicalRoot, appPath, origURL string) PathResolver {
	p := PathResolver{
		PhysicalRoot: filepath.Clean(physicalRoot),
		AppPath:      normalizeAppPath(appPath),
	}
	switch {
	case origURL == "":
		p.CurrentDir = p.PhysicalRoot
	case strings.HasSuffix(origURL, "/"):
		p.CurrentDir = p.MapPath(origURL)
	default:
		p.CurrentDir = filepath.Dir(p.MapPath(origURL))
	}
	return p
}

// FullPath resolves path the way an asset preprocessor expects:
//
//	/x      -> physical root + x
//	~/x     -> MapPath("~/x")
//	other   -> current directory + path
func (p PathResolver) FullPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/"):
		return filepath.Join(p.PhysicalRoot, filepath.FromSlash(strings.TrimLeft(path, "/")))
	case strings.HasPrefix(path, "~/"):
		return p.MapPath(path)
	default:
		dir := p.CurrentDir
		if dir == "" {
			dir = p.PhysicalRoot
		}
		return filepath.Join(dir, filepath.FromSlash(path))
	}
}

// MapPath maps a virtual path to a physical one. "~/" and paths under the
// application path are rooted at the physical root; other relative paths
// are taken from the current directory.
func (p PathResolver) MapPath(virtual string) string {
	appPath := normalizeAppPath(p.AppPath)
	virtual = uri.ToAppAbsolute(virtual, appPath)

	if !strings.HasPrefix(virtual, "/") {
		dir := p.CurrentDir
		if dir == "" {
			dir = p.PhysicalRoot
		}
		return filepath.Join(dir, filepath.FromSlash(virtual))
	}

	prefix := strings.TrimRight(appPath, "/")
	rel := virtual
	if prefix != "" && (strings.EqualFold(virtual, prefix) || strings.HasPrefix(strings.ToLower(virtual), strings.ToLower(prefix)+"/")) {
		rel = virtual[len(prefix):]
	}
	return filepath.Join(p.PhysicalRoot, filepath.FromSlash(strings.TrimLeft(rel, "/")))
}

// Contains reports whether path lies under the physical root
func (p PathResolver) Contains(path string) bool {
	rel, err := filepath.Rel(p.PhysicalRoot, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
