package server

import (
	"bytes"
	"fmt"
	"html"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// siteHandler serves the output directory. HTML responses get the live
// reload script and a missing page falls back to 404.html.
type siteHandler struct {
	root       string
	status     *buildStatus
	liveReload bool
	files      http.Handler
}

func newSiteHandler(root string, status *buildStatus, liveReload bool) *siteHandler {
	return &siteHandler{
		root:       root,
		status:     status,
		liveReload: liveReload,
		files:      http.FileServer(http.Dir(root)),
	}
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if lastErr, _, good := h.status.get(); !good {
		if lastErr != nil {
			h.renderBuildError(w, lastErr)
		} else {
			h.renderPending(w)
		}
		return
	}

	w.Header().Set("Cache-Control", "no-cache, must-revalidate")

	file, ok := h.lookup(r.URL.Path)
	switch {
	case !ok:
		h.notFound(w, r)
	case strings.HasSuffix(file, ".html"):
		h.serveHTML(w, r, file, http.StatusOK)
	default:
		h.files.ServeHTTP(w, r)
	}
}

// lookup maps a request path to a file below root. Directory requests
// resolve to their index.html.
func (h *siteHandler) lookup(urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	file := filepath.Join(h.root, filepath.FromSlash(clean))
	st, err := os.Stat(file)
	if err != nil {
		return "", false
	}
	if st.IsDir() {
		if !strings.HasSuffix(urlPath, "/") {
			// The file server issues the trailing slash redirect.
			return file, true
		}
		file = filepath.Join(file, "index.html")
		if _, err := os.Stat(file); err != nil {
			return "", false
		}
	}
	return file, true
}

func (h *siteHandler) serveHTML(w http.ResponseWriter, r *http.Request, file string, status int) {
	data, err := os.ReadFile(file)
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	if h.liveReload {
		data = injectScript(data, scriptTag)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write(data)
		return
	}
	var mod time.Time
	if st, err := os.Stat(file); err == nil {
		mod = st.ModTime()
	}
	http.ServeContent(w, r, filepath.Base(file), mod, bytes.NewReader(data))
}

func (h *siteHandler) notFound(w http.ResponseWriter, r *http.Request) {
	custom := filepath.Join(h.root, "404.html")
	if _, err := os.Stat(custom); err == nil {
		h.serveHTML(w, r, custom, http.StatusNotFound)
		return
	}
	http.NotFound(w, r)
}

func (h *siteHandler) script() string {
	if !h.liveReload {
		return ""
	}
	return scriptTag
}

func (h *siteHandler) renderBuildError(w http.ResponseWriter, buildErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>Build failed</title><style>body{font-family:sans-serif;max-width:800px;margin:50px auto;padding:20px}h1{color:#d32f2f}pre{background:#f5f5f5;padding:15px;border-radius:4px;overflow-x:auto;white-space:pre-wrap}</style></head><body><h1>Build failed</h1><p>Fix the error below and save to rebuild.</p><pre>%s</pre>%s</body></html>`,
		html.EscapeString(buildErr.Error()), h.script())
}

func (h *siteHandler) renderPending(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = fmt.Fprintf(w, `<!doctype html><html><head><meta charset="utf-8"><title>Building</title></head><body><h1>The site is being built</h1><p>This page reloads when the first build completes.</p>%s</body></html>`, h.script())
}
