// Package gateway forwards selected routes to third-party upstreams.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"leetclone/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var ErrUnknownUpstream = errors.New("upstream not found")

type ProxyConfig struct {
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	IdleConnTimeout       time.Duration
	ResponseHeaderTimeout time.Duration
	TLSHandshakeTimeout   time.Duration
	DialTimeout           time.Duration
}

func DefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		DialTimeout:           10 * time.Second,
	}
}

// Upstream is a forwarding target. A non-root path in URL prefixes every
// forwarded path. SetHeaders overwrite request headers and DropHeaders are
// removed before the request leaves.
type Upstream struct {
	URL         *url.URL
	SetHeaders  map[string]string
	DropHeaders []string
}

// ProxyFactory builds and caches reverse proxies per upstream.
type ProxyFactory struct {
	config    ProxyConfig
	proxies   map[string]*httputil.ReverseProxy
	mu        sync.RWMutex
	upstreams map[string]Upstream
}

func NewProxyFactory(config ProxyConfig, upstreams map[string]Upstream) *ProxyFactory {
	return &ProxyFactory{config: config, proxies: make(map[string]*httputil.ReverseProxy), upstreams: upstreams}
}

func (f *ProxyFactory) Get(name string) (*httputil.ReverseProxy, error) {
	f.mu.RLock()
	if proxy, ok := f.proxies[name]; ok {
		f.mu.RUnlock()
		return proxy, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if proxy, ok := f.proxies[name]; ok {
		return proxy, nil
	}
	upstream, ok := f.upstreams[name]
	if !ok || upstream.URL == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUpstream, name)
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: f.config.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          f.config.MaxIdleConns,
		MaxIdleConnsPerHost:   f.config.MaxIdleConnsPerHost,
		IdleConnTimeout:       f.config.IdleConnTimeout,
		TLSHandshakeTimeout:   f.config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: f.config.ResponseHeaderTimeout,
	}

	target := upstream.URL
	director := func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = joinPath(target.Path, req.URL.Path)
		req.URL.RawPath = ""
		req.Host = target.Host
		for _, h := range upstream.DropHeaders {
			req.Header.Del(h)
		}
		for k, v := range upstream.SetHeaders {
			req.Header.Set(k, v)
		}
	}

	proxy := &httputil.ReverseProxy{
		Director:     director,
		Transport:    transport,
		ErrorHandler: proxyErrorHandler(name),
	}
	f.proxies[name] = proxy
	return proxy, nil
}

func joinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	if path == "" || path == "/" {
		if base == "" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func proxyErrorHandler(name string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.FromContext(r.Context()).Error("Upstream request failed",
			zap.String("upstream", name),
			zap.String("path", r.URL.Path),
			zap.Error(err))

		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "An error occurred while processing your request."})
	}
}

// ProxyHandler forwards requests to upstream and injects context headers.
func ProxyHandler(proxy *httputil.ReverseProxy, routeName string, timeout time.Duration, stripPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if proxy == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "upstream proxy unavailable"})
			return
		}
		// ReverseProxy needs a cancellable context or it falls back to CloseNotifier.
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(c.Request.Context(), timeout)
		} else {
			ctx, cancel = context.WithCancel(c.Request.Context())
		}
		defer cancel()
		req := c.Request.WithContext(ctx)

		if stripPrefix != "" && strings.HasPrefix(req.URL.Path, stripPrefix) {
			path := strings.TrimPrefix(req.URL.Path, stripPrefix)
			if path == "" {
				path = "/"
			}
			req.URL.Path = path
		}

		injectHeaders(c, req, routeName)
		proxy.ServeHTTP(c.Writer, req)
	}
}

func injectHeaders(c *gin.Context, req *http.Request, routeName string) {
	if requestID := c.GetString("request_id"); requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	// Only the auth middleware may assert an identity upstream.
	req.Header.Del("X-User-Id")
	if userID := c.GetString("user_id"); userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	req.Header.Set("X-Route-Name", routeName)
	req.Header.Set("X-Real-IP", c.ClientIP())
}
