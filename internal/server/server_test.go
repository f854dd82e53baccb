package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leetclone/configs"
	"leetclone/internal/repositories"
	"leetclone/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newTestApp(t *testing.T, config *configs.Config) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	a, err := newApp(config, rdb, repositories.NewRedisDocStore(rdb, ""), services.NewFixtureSet(nil))
	if err != nil {
		t.Fatalf("build app failed: %v", err)
	}
	return a
}

func testConfig() *configs.Config {
	return &configs.Config{
		CORSOrigins:     []string{"http://localhost:3000"},
		JWTSecret:       "test-secret",
		PistonURL:       "http://127.0.0.1:1",
		GraphQLURL:      "http://127.0.0.1:1/graphql",
		UpstreamTimeout: time.Second,
		ProgressStream:  "progress",
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, testConfig())
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestGraphQLIsProxied(t *testing.T) {
	var gotOrigin, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrigin = r.Header.Get("Origin")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"data":{"ok":true}}`)
	}))
	defer upstream.Close()

	config := testConfig()
	config.GraphQLURL = upstream.URL + "/graphql"
	a := newTestApp(t, config)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ ok }"}`)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
	if gotPath != "/graphql" || gotOrigin != upstream.URL {
		t.Fatalf("unexpected upstream request: path=%s origin=%s", gotPath, gotOrigin)
	}
}

func TestForumRoutesForwardedWhenBackendConfigured(t *testing.T) {
	var gotURI string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.RequestURI()
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `[]`)
	}))
	defer backend.Close()

	config := testConfig()
	config.CommentsBackendURL = backend.URL
	a := newTestApp(t, config)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts?username=bob", nil))
	if rec.Code != http.StatusOK || gotURI != "/api/posts?username=bob" {
		t.Fatalf("unexpected forward: status=%d uri=%s", rec.Code, gotURI)
	}

	rec = httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts/comments/c1/reply", strings.NewReader(`{"content":"hi"}`)))
	if gotURI != "/api/posts/comments/c1/reply" {
		t.Fatalf("unexpected forward uri: %s", gotURI)
	}
}

func TestForumServedLocallyByDefault(t *testing.T) {
	a := newTestApp(t, testConfig())
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownDocStoreDriver(t *testing.T) {
	if _, _, err := newDocStore(context.Background(), &configs.Config{DocStoreDriver: "mongo"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
