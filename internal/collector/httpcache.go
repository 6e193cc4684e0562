package collector

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// HTTPCache is a RoundTripper that keeps GET responses on disk for a fixed
// time. Only 200, 400 and 404 responses are stored.
type HTTPCache struct {
	Base http.RoundTripper
	Dir  string
	TTL  time.Duration
	now  func() time.Time
}

var cacheableStatus = map[int]bool{
	http.StatusOK:         true,
	http.StatusBadRequest: true,
	http.StatusNotFound:   true,
}

// NewHTTPCache wraps base, creating dir if needed.
func NewHTTPCache(base http.RoundTripper, dir string, ttl time.Duration) (*HTTPCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create http cache dir: %w", err)
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &HTTPCache{Base: base, Dir: dir, TTL: ttl, now: time.Now}, nil
}

func (c *HTTPCache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return c.Base.RoundTrip(req)
	}
	key := fmt.Sprintf("%x", sha1.Sum([]byte(req.Method+" "+req.URL.String())))

	if resp, err := c.get(key, req); err == nil {
		return resp, nil
	}

	resp, err := c.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if !cacheableStatus[resp.StatusCode] {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		log.Printf("[WARN] http cache write %s: %v", req.URL.Host, err)
	}
	return resp, nil
}

func (c *HTTPCache) get(key string, req *http.Request) (*http.Response, error) {
	file := filepath.Join(c.Dir, key)
	st, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	if c.now().Sub(st.ModTime()) >= c.TTL {
		os.Remove(file)
		return nil, os.ErrNotExist
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put dumps the response to disk. DumpResponse replaces resp.Body with an
// in-memory copy, so the caller can still read it.
func (c *HTTPCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.Dir, key), content, 0644)
}

// NewHTTPClient builds the provider client: optional proxy, optional disk
// cache, and a per-request timeout.
func NewHTTPClient(proxyURL, cacheDir string, cacheTTL, timeout time.Duration) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	var rt http.RoundTripper = transport
	if cacheDir != "" && cacheTTL > 0 {
		if hc, err := NewHTTPCache(transport, cacheDir, cacheTTL); err != nil {
			log.Printf("[WARN] http cache disabled: %v", err)
		} else {
			rt = hc
		}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}
