package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/app/scripts/app.aspx", func(c *gin.Context) {
		session, _ := c.Cookie("session")
		c.String(http.StatusOK, "ALERT('%s')", session)
	})
	router.GET("/app/broken.aspx", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "boom")
	})
	return router
}

func TestHandlerExecutor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://app.test/app/default.aspx", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "1"})

	env, err := New(req, Options{AppPath: "/app", Executor: HandlerExecutor{Handler: newTestEngine()}})
	require.NoError(t, err)

	out, err := env.Execute(context.Background(), "~/scripts/app.aspx")
	require.NoError(t, err)
	assert.Equal(t, "ALERT('1')", out)

	again, err := env.Execute(context.Background(), "~/scripts/app.aspx")
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestHandlerExecutorErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://app.test/app/", nil)
	env, err := New(req, Options{AppPath: "/app", Executor: HandlerExecutor{Handler: newTestEngine()}})
	require.NoError(t, err)

	_, err = env.Execute(context.Background(), "~/broken.aspx")
	assert.Error(t, err)

	_, err = env.Execute(context.Background(), "~/missing.aspx")
	assert.Error(t, err)

	_, err = HandlerExecutor{}.Execute(context.Background(), env, "~/x.aspx")
	assert.ErrorIs(t, err, ErrNoExecutor)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.Execute(ctx, "~/scripts/app.aspx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileExecutor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scripts", "page.aspx"), []byte("rendered"), 0o644))

	paths := NewPathResolver(root, "/app", "~/index.aspx")
	req := httptest.NewRequest(http.MethodGet, "http://app.test/app/index.aspx", nil)
	env, err := New(req, Options{AppPath: "/app", Executor: FileExecutor{Paths: paths}})
	require.NoError(t, err)

	out, err := env.Execute(context.Background(), "~/scripts/page.aspx")
	require.NoError(t, err)
	assert.Equal(t, "rendered", out)

	out, err = env.Execute(context.Background(), "scripts/page.aspx?v=3")
	require.NoError(t, err)
	assert.Equal(t, "rendered", out)

	_, err = env.Execute(context.Background(), "~/missing.aspx")
	assert.Error(t, err)

	_, err = env.Execute(context.Background(), "../../etc/passwd.aspx")
	assert.Error(t, err)
}

func TestPathResolverFullPath(t *testing.T) {
	root := filepath.FromSlash("/srv/site")
	p := NewPathResolver(root, "/app", "~/styles/main.less")

	assert.Equal(t, filepath.Join(root, "styles"), p.CurrentDir)
	assert.Equal(t, filepath.Join(root, "img", "a.png"), p.FullPath("/img/a.png"))
	assert.Equal(t, filepath.Join(root, "img", "a.png"), p.FullPath("~/img/a.png"))
	assert.Equal(t, filepath.Join(root, "styles", "mixins", "grid.less"), p.FullPath("mixins/grid.less"))
	assert.Equal(t, filepath.Join(root, "shared.less"), p.FullPath("../shared.less"))
}

func TestPathResolverMapPath(t *testing.T) {
	root := filepath.FromSlash("/srv/site")
	p := NewPathResolver(root, "/app", "")

	assert.Equal(t, root, p.CurrentDir)
	assert.Equal(t, filepath.Join(root, "pages"), NewPathResolver(root, "/app", "/app/pages/").CurrentDir)
	assert.Equal(t, filepath.Join(root, "css", "a.css"), p.MapPath("~/css/a.css"))
	assert.Equal(t, filepath.Join(root, "css", "a.css"), p.MapPath("/app/css/a.css"))
	assert.Equal(t, filepath.Join(root, "css", "a.css"), p.MapPath("/APP/css/a.css"))
	assert.Equal(t, filepath.Join(root, "application", "a.css"), p.MapPath("/application/a.css"))
	assert.Equal(t, filepath.Join(root, "css", "a.css"), p.MapPath("css/a.css"))
}

func TestPathResolverContains(t *testing.T) {
	root := filepath.FromSlash("/srv/site")
	p := NewPathResolver(root, "/", "")

	assert.True(t, p.Contains(root))
	assert.True(t, p.Contains(filepath.Join(root, "a", "b.js")))
	assert.True(t, p.Contains(filepath.Join(root, "..a")))
	assert.False(t, p.Contains(filepath.Dir(root)))
	assert.False(t, p.Contains(filepath.Join(root, "..", "other")))
}
