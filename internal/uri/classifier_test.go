package uri

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEnv resolves against a fixed base and treats its host as local
type fakeEnv struct {
	appPath string
	base    *url.URL
	failing bool
}

func newFakeEnv(t *testing.T, base, appPath string) *fakeEnv {
	t.Helper()
	u, err := url.Parse(base)
	require.NoError(t, err)
	return &fakeEnv{appPath: appPath, base: u}
}

func (e *fakeEnv) ApplicationPath() string { return e.appPath }

func (e *fakeEnv) ResolveURL(ref *url.URL) (*url.URL, error) {
	if e.failing {
		return nil, errors.New("no base")
	}
	r := *ref
	r.Path = ToAppAbsolute(r.Path, e.appPath)
	return e.base.ResolveReference(&r), nil
}

func (e *fakeEnv) IsLocal(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == strings.ToLower(e.base.Hostname()) || host == "localhost" || host == "127.0.0.1"
}

func TestClassify(t *testing.T) {
	env := newFakeEnv(t, "http://www.site.test/app/page", "/app")
	c := New(DefaultOptions())

	tests := []struct {
		name string
		ref  string
		want Classification
	}{
		{name: "virtual executable page", ref: "~/scripts/app.aspx", want: LocalExecutable},
		{name: "executable suffix is case-insensitive", ref: "/app/Scripts/App.ASPX", want: LocalExecutable},
		{name: "relative executable page", ref: "scripts/app.aspx", want: LocalExecutable},
		{name: "handler route", ref: "/app/webresource.axd?d=xyz", want: InternalHandler},
		{name: "handler route case-insensitive", ref: "/APP/WebResource.axd?d=xyz", want: InternalHandler},
		{name: "virtual handler route", ref: "~/webresource.axd?d=xyz", want: InternalHandler},
		{name: "relative static file is self", ref: "/app/scripts/site.js", want: InternalHandler},
		{name: "absolute self", ref: "http://www.site.test/app/site.css", want: InternalHandler},
		{name: "absolute loopback", ref: "http://localhost:9000/site.css", want: InternalHandler},
		{name: "external", ref: "http://cdn.evil.test/a.js", want: External},
		{name: "protocol-relative external", ref: "//cdn.example.com/a.js", want: External},
		{name: "absolute executable is still external", ref: "http://cdn.example.com/a.aspx", want: External},
		{name: "empty", ref: "", want: Invalid},
		{name: "blank", ref: "   ", want: Invalid},
		{name: "bad escape", ref: "http://cdn.example.com/%zz", want: Invalid},
		{name: "control character", ref: "/scripts/\x7fapp.js", want: Invalid},
		{name: "unsupported scheme", ref: "file:///etc/passwd", want: Invalid},
		{name: "javascript scheme", ref: "javascript:alert(1)", want: Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.ref, env))
		})
	}
}

func TestClassifyHandlerAtRootApplication(t *testing.T) {
	env := newFakeEnv(t, "http://www.site.test/", "/")
	c := New(Options{})

	assert.Equal(t, InternalHandler, c.Classify("/webresource.axd?d=1", env))
	assert.Equal(t, Options{ExecutableSuffix: ".aspx", HandlerPath: "/webresource.axd"}, c.Options())
}

func TestClassifyCustomOptions(t *testing.T) {
	env := newFakeEnv(t, "http://www.site.test/", "/")
	c := New(Options{ExecutableSuffix: ".php", HandlerPath: "assets.ashx"})

	assert.Equal(t, "/assets.ashx", c.Options().HandlerPath)
	assert.Equal(t, LocalExecutable, c.Classify("/bundle.php", env))
	assert.Equal(t, InternalHandler, c.Classify("/assets.ashx?id=1", env))
	assert.Equal(t, InternalHandler, c.Classify("/page.aspx", env))
}

func TestAnalyze(t *testing.T) {
	env := newFakeEnv(t, "http://www.site.test/app/page", "/app")
	c := New(DefaultOptions())

	t.Run("handler resolves absolute", func(t *testing.T) {
		ref := c.Analyze("/app/webresource.axd?d=xyz", env)
		require.NotNil(t, ref.Absolute)
		assert.Equal(t, "http://www.site.test/app/webresource.axd?d=xyz", ref.Absolute.String())
	})

	t.Run("executable keeps relative", func(t *testing.T) {
		ref := c.Analyze("~/scripts/app.aspx", env)
		assert.Equal(t, LocalExecutable, ref.Class)
		assert.Nil(t, ref.Absolute)
		assert.Equal(t, "~/scripts/app.aspx", ref.Original)
	})

	t.Run("invalid carries reason", func(t *testing.T) {
		ref := c.Analyze("ftp://files.example.com/a.js", env)
		assert.Equal(t, Invalid, ref.Class)
		assert.Contains(t, ref.Reason, "unsupported scheme")
	})

	t.Run("resolution failure is invalid", func(t *testing.T) {
		broken := newFakeEnv(t, "http://www.site.test/", "/")
		broken.failing = true
		ref := c.Analyze("/scripts/site.js", broken)
		assert.Equal(t, Invalid, ref.Class)
		assert.Contains(t, ref.Reason, "cannot resolve")
	})
}

func TestToAppAbsolute(t *testing.T) {
	assert.Equal(t, "/app/scripts/a.js", ToAppAbsolute("~/scripts/a.js", "/app"))
	assert.Equal(t, "/app/scripts/a.js", ToAppAbsolute("~/scripts/a.js", "/app/"))
	assert.Equal(t, "/scripts/a.js", ToAppAbsolute("~/scripts/a.js", "/"))
	assert.Equal(t, "/app/", ToAppAbsolute("~", "/app"))
	assert.Equal(t, "scripts/a.js", ToAppAbsolute("scripts/a.js", "/app"))
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "local-executable", LocalExecutable.String())
	assert.Equal(t, "internal-handler", InternalHandler.String())
	assert.Equal(t, "external", External.String())
	assert.Equal(t, "unknown", Classification(42).String())
}
