package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhruvilrpatil/urlshortner/internal/app"
	"github.com/dhruvilrpatil/urlshortner/internal/config"
	"github.com/dhruvilrpatil/urlshortner/internal/core"
)

func testConfig() config.Config {
	return config.Config{
		BaseURL:          "", // short_url falls back to the request host
		DBPath:           ":memory:",
		CounterBackend:   config.BackendMemory,
		ShortenLimit:     10,
		ShortenWindow:    time.Minute,
		FollowLimit:      120,
		FollowWindow:     time.Minute,
		SpamLimit:        3,
		SpamWindow:       30 * time.Second,
		TrustedProxies:   []string{"0.0.0.0/0", "::/0"},
		ClientIPHeader:   "X-Forwarded-For",
		CustomCodePolicy: core.CustomCodeIgnore,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a, err := app.New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(a.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return srv
}

// noFollow inspects redirects instead of following them.
func noFollow() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func postJSON(t *testing.T, url string, body any, header ...string) (*http.Response, map[string]any) {
	t.Helper()
	var buf io.Reader
	switch b := body.(type) {
	case string:
		buf = strings.NewReader(b)
	default:
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	out := map[string]any{}
	data, _ := io.ReadAll(res.Body)
	_ = json.Unmarshal(data, &out)
	return res, out
}

func get(t *testing.T, client *http.Client, url string, header ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	res, err := client.Do(req)
	require.NoError(t, err)
	data, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	return res, data
}

func TestShortener_EndToEnd(t *testing.T) {
	ts := newTestServer(t, testConfig())
	base := ts.URL

	// 1) Health
	res, _ := get(t, ts.Client(), base+"/health")
	require.Equal(t, http.StatusOK, res.StatusCode)

	// 2) Shorten a URL
	res, out := postJSON(t, base+"/shorten", map[string]any{"url": "https://example.com/a"})
	require.Equal(t, http.StatusCreated, res.StatusCode, out)
	code, _ := out["code"].(string)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-Za-z]{7}$`), code)
	assert.Equal(t, "https://example.com/a", out["original_url"])
	assert.Equal(t, base+"/"+code, out["short_url"])
	expiresAt, err := time.Parse(time.RFC3339, out["expires_at"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, 5*time.Second)

	// 3) Same URL again: idempotent hit
	res, out = postJSON(t, base+"/shorten", map[string]any{"url": "https://example.com/a"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, code, out["code"])
	assert.Equal(t, "This URL was already shortened.", out["message"])
	assert.NotContains(t, out, "expires_at")

	// 4) Redirect (do NOT follow; inspect Location)
	res, _ = get(t, noFollow(), base+"/"+code)
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "https://example.com/a", res.Header.Get("Location"))

	// 5) Click count is visible right away
	res, body := get(t, ts.Client(), base+"/api/links/"+code)
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var meta struct {
		ClickCount int64 `json:"click_count"`
	}
	require.NoError(t, json.Unmarshal(body, &meta))
	assert.Equal(t, int64(1), meta.ClickCount)
}

func TestShortener_Validation(t *testing.T) {
	ts := newTestServer(t, testConfig())

	res, out := postJSON(t, ts.URL+"/shorten", map[string]any{"url": "ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "URL must start with http:// or https://.", out["error"])

	res, out = postJSON(t, ts.URL+"/shorten", map[string]any{"url": "https://example.com/c", "code": "ab"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Short code must be at least 3 characters.", out["error"])

	res, out = postJSON(t, ts.URL+"/shorten", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "invalid json body", out["error"])

	res, out = postJSON(t, ts.URL+"/shorten", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Please enter a URL.", out["error"])
}

func TestShortener_ReservedCodeKeepsRoute(t *testing.T) {
	ts := newTestServer(t, testConfig())

	res, out := postJSON(t, ts.URL+"/shorten", map[string]any{"url": "https://example.com/health", "code": "health"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "This short code is reserved. Please choose another one.", out["error"])

	res, body := get(t, noFollow(), ts.URL+"/health")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, res.Header.Get("Location"))
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestShortener_CustomCode(t *testing.T) {
	ts := newTestServer(t, testConfig())

	res, out := postJSON(t, ts.URL+"/shorten", map[string]any{"url": "https://example.com/one", "code": "my-link"})
	require.Equal(t, http.StatusCreated, res.StatusCode, out)
	assert.Equal(t, "my-link", out["code"])

	res, out = postJSON(t, ts.URL+"/shorten", map[string]any{"url": "https://example.com/two", "code": "my-link"})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "This short code is already taken. Please choose another one.", out["error"])

	res, _ = get(t, noFollow(), ts.URL+"/my-link")
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "https://example.com/one", res.Header.Get("Location"))
}

func TestShortener_NotFound(t *testing.T) {
	ts := newTestServer(t, testConfig())

	for _, path := range []string{"/zzzzzzz", "/" + strings.Repeat("a", 33)} {
		res, body := get(t, noFollow(), ts.URL+path)
		assert.Equal(t, http.StatusNotFound, res.StatusCode, path)
		assert.Contains(t, string(body), "Link not found")
	}

	res, _ := get(t, ts.Client(), ts.URL+"/api/links/zzzzzzz")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestShortener_RateLimitPerClientIP(t *testing.T) {
	ts := newTestServer(t, testConfig())

	for i := 0; i < 10; i++ {
		res, out := postJSON(t, ts.URL+"/shorten",
			map[string]any{"url": "https://example.com/r/" + strconv.Itoa(i)},
			"X-Forwarded-For", "198.51.100.9, 10.0.0.1")
		require.Equal(t, http.StatusCreated, res.StatusCode, out)
	}
	res, out := postJSON(t, ts.URL+"/shorten",
		map[string]any{"url": "https://example.com/r/k"},
		"X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "Rate limit exceeded. Try again later.", out["error"])

	// First value of the header identifies the client.
	res, _ = postJSON(t, ts.URL+"/shorten",
		map[string]any{"url": "https://example.com/r/k"},
		"X-Forwarded-For", "198.51.100.10, 198.51.100.9")
	assert.Equal(t, http.StatusCreated, res.StatusCode)
}

func TestShortener_UntrustedPeerHeaderIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"10.9.9.9"}
	ts := newTestServer(t, cfg)

	// The loopback peer is not trusted, so rotating the header does not
	// escape the limit.
	for i := 0; i < 10; i++ {
		res, _ := postJSON(t, ts.URL+"/shorten",
			map[string]any{"url": "https://example.com/u/" + strconv.Itoa(i)},
			"X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		require.Equal(t, http.StatusCreated, res.StatusCode)
	}
	res, _ := postJSON(t, ts.URL+"/shorten",
		map[string]any{"url": "https://example.com/u/z"},
		"X-Forwarded-For", "203.0.113.99")
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestShortener_SpamDetected(t *testing.T) {
	ts := newTestServer(t, testConfig())
	body := map[string]any{"url": "https://example.com/spam"}

	for i := 0; i < 3; i++ {
		res, _ := postJSON(t, ts.URL+"/shorten", body)
		require.Less(t, res.StatusCode, 300)
	}
	res, out := postJSON(t, ts.URL+"/shorten", body)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "Too many repeated submissions. Try again later.", out["error"])
}

func TestShortener_FollowRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.FollowLimit = 2
	ts := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		res, _ := get(t, noFollow(), ts.URL+"/nothere")
		require.Equal(t, http.StatusNotFound, res.StatusCode)
	}
	res, _ := get(t, noFollow(), ts.URL+"/nothere")
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestShortener_ConfiguredBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "https://sho.rt"
	ts := newTestServer(t, cfg)

	res, out := postJSON(t, ts.URL+"/shorten", map[string]any{"url": "https://example.com/b", "code": "brand"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "https://sho.rt/brand", out["short_url"])
}

func TestShortener_IndexPage(t *testing.T) {
	ts := newTestServer(t, testConfig())
	res, body := get(t, ts.Client(), ts.URL+"/")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "fetch('/shorten'")
}
