package rest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// cachedResponse is the on-disk form of a response.
type cachedResponse struct {
	Status     string              `json:"status"`
	StatusCode int                 `json:"status_code"`
	Proto      string              `json:"proto"`
	Header     map[string][]string `json:"header"`
	Body       []byte              `json:"body"`
}

// CachingRoundTripper replays responses saved under CacheDir and records
// the ones it has not seen. Only successful responses are saved, so a bad
// key or an outage is not replayed forever.
type CachingRoundTripper struct {
	// UnderlyingTransport is used on a cache miss.
	// If nil, http.DefaultTransport will be used.
	UnderlyingTransport http.RoundTripper

	CacheDir string
	Logger   *zap.Logger
}

func (c *CachingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	next := c.UnderlyingTransport
	if next == nil {
		next = http.DefaultTransport
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "read request body")
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	// headers are ignored, so the key does not depend on the API key
	key := cacheKey(req.Method, req.URL.String(), bodyBytes)
	path := c.cacheFilePath(key)

	if _, err := os.Stat(path); err == nil {
		logger.Debug("cache hit", zap.String("url", req.URL.String()))
		return loadCachedResponse(path, req)
	}

	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return resp, nil
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	cr := cachedResponse{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Proto:      resp.Proto,
		Header:     resp.Header.Clone(),
		Body:       respBodyBytes,
	}
	if err := saveCachedResponse(path, &cr); err != nil {
		return nil, err
	}
	logger.Debug("cached response", zap.String("url", req.URL.String()), zap.String("file", path))

	return buildHTTPResponse(req, cr), nil
}

// cacheKey names the file a response is stored under. Method, URL and body
// are separated by NUL so no two requests share a key.
func cacheKey(method, url string, body []byte) string {
	hash := sha256.New()
	for _, part := range [][]byte{[]byte(method), []byte(url), body} {
		hash.Write(part)
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))
}

func (c *CachingRoundTripper) cacheFilePath(key string) string {
	return filepath.Join(c.CacheDir, key+".json")
}

func loadCachedResponse(path string, req *http.Request) (*http.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read cached response")
	}

	var cr cachedResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, errors.Wrapf(err, "decode cached response %s", path)
	}
	return buildHTTPResponse(req, cr), nil
}

func saveCachedResponse(path string, cr *cachedResponse) error {
	data, err := json.MarshalIndent(cr, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create cache dir")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write cached response")
}

func buildHTTPResponse(req *http.Request, cr cachedResponse) *http.Response {
	return &http.Response{
		Status:        cr.Status,
		StatusCode:    cr.StatusCode,
		Proto:         cr.Proto,
		Header:        cr.Header,
		Body:          io.NopCloser(bytes.NewReader(cr.Body)),
		ContentLength: int64(len(cr.Body)),
		Request:       req,
	}
}
