package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/site"
)

func mkdirAll(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	mkdirAll(t, filepath.Dir(path))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// fakeBuilder writes a single page per build.
type fakeBuilder struct {
	out   string
	count atomic.Int32
	mu    sync.Mutex
	fail  error
}

func (b *fakeBuilder) Build(context.Context) (*site.Report, error) {
	n := b.count.Add(1)
	b.mu.Lock()
	fail := b.fail
	b.mu.Unlock()
	r := &site.Report{BuildID: fmt.Sprintf("build-%d", n), End: time.Now(), Pages: 1}
	if fail != nil {
		r.Outcome = site.OutcomeFailed
		return r, fail
	}
	if err := os.MkdirAll(b.out, 0o750); err != nil {
		return r, err
	}
	page := fmt.Sprintf("<html><body><h1>build %d</h1></body></html>", n)
	if err := os.WriteFile(filepath.Join(b.out, "index.html"), []byte(page), 0o600); err != nil {
		return r, err
	}
	r.Outcome = site.OutcomeSuccess
	return r, nil
}

func (b *fakeBuilder) setFail(err error) {
	b.mu.Lock()
	b.fail = err
	b.mu.Unlock()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler_PendingBeforeFirstBuild(t *testing.T) {
	s := New(&fakeBuilder{out: t.TempDir()}, Options{OutputDir: t.TempDir(), LiveReload: true})
	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "being built")
	require.Contains(t, rec.Body.String(), scriptTag)

	rec = get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"starting"`)
}

func TestHandler_BuildErrorPage(t *testing.T) {
	b := &fakeBuilder{out: t.TempDir()}
	b.setFail(errors.New("layout <base> missing"))
	s := New(b, Options{OutputDir: b.out})
	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.Error(t, err)

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "layout &lt;base&gt; missing")
	require.NotContains(t, rec.Body.String(), scriptTag)

	rec = get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "runtime", body["code"])
}

func TestHandler_ServesSite(t *testing.T) {
	out := t.TempDir()
	b := &fakeBuilder{out: out}
	s := New(b, Options{OutputDir: out, LiveReload: true})
	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)
	writeFile(t, filepath.Join(out, "guides", "intro", "index.html"), "<html><body>intro</body></html>")
	writeFile(t, filepath.Join(out, "assets", "site.css"), "body{}")
	h := s.Handler()

	rec := get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "<html><body><h1>build 1</h1>"+scriptTag+"</body></html>", rec.Body.String())

	rec = get(t, h, "/guides/intro/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), scriptTag)

	rec = get(t, h, "/guides/intro")
	require.Equal(t, http.StatusMovedPermanently, rec.Code)

	rec = get(t, h, "/assets/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())

	rec = get(t, h, "/livereload.js")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "EventSource('/livereload')")

	rec = get(t, h, "/healthz")
	require.Contains(t, rec.Body.String(), `"build_id":"build-1"`)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandler_NotFound(t *testing.T) {
	out := t.TempDir()
	s := New(&fakeBuilder{out: out}, Options{OutputDir: out, LiveReload: true})
	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)

	rec := get(t, s.Handler(), "/missing/")
	require.Equal(t, http.StatusNotFound, rec.Code)

	writeFile(t, filepath.Join(out, "404.html"), "<body>gone</body>")
	rec = get(t, s.Handler(), "/missing/")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "<body>gone"+scriptTag+"</body>", rec.Body.String())
}

func TestHandler_DegradedAfterGoodBuild(t *testing.T) {
	out := t.TempDir()
	b := &fakeBuilder{out: out}
	s := New(b, Options{OutputDir: out})
	_, err := s.Rebuild(t.Context(), TriggerInitial)
	require.NoError(t, err)
	b.setFail(errors.New("broken"))
	_, err = s.Rebuild(t.Context(), TriggerWatch)
	require.Error(t, err)

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "build 1")

	rec = get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestHandler_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "docsite_builds_total 1\n")
	})
	s := New(&fakeBuilder{out: t.TempDir()}, Options{MetricsPath: "/metrics", MetricsHandler: metrics})
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "docsite_builds_total")
}

func TestServer_RebuildsOnChange(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(in, "build")
	writeFile(t, filepath.Join(in, "index.md"), "# home")
	b := &fakeBuilder{out: out}
	s := New(b, Options{InputDir: in, OutputDir: out, LiveReload: true, Debounce: 20 * time.Millisecond})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(body), "build 1")
	}, 2*time.Second, 20*time.Millisecond)

	// Writes into the output dir must not trigger a rebuild.
	writeFile(t, filepath.Join(out, "extra.html"), "x")
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), b.count.Load())

	writeFile(t, filepath.Join(in, "index.md"), "# changed")
	require.Eventually(t, func() bool { return b.count.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RequestCoalesces(t *testing.T) {
	s := New(&fakeBuilder{out: t.TempDir()}, Options{})
	s.Request(TriggerWatch)
	s.Request(TriggerSchedule)
	require.Len(t, s.requests, 1)
	require.Equal(t, TriggerWatch, <-s.requests)
}

func TestAddrFor(t *testing.T) {
	require.Equal(t, ":8080", AddrFor(8080))
}
