package main

import (
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/photo-restorer/internal/preview"
	"github.com/klauspost/compress/gzhttp"
)

const previewPath = "/api/preview/"

// server exposes the workflow of each browser session over HTTP.
type server struct {
	sessions  *sessionStore
	previews  *preview.Registry
	frontend  fs.FS
	maxUpload int64
	now       func() time.Time

	// pickFile opens a native file dialog; nil disables POST /api/pick.
	pickFile func() (string, error)
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/image", s.handleUpload)
	mux.HandleFunc("DELETE /api/image", s.handleClearImage)
	mux.HandleFunc("POST /api/pick", s.handlePick)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("PUT /api/prompt", s.handlePrompt)
	mux.HandleFunc("POST /api/restore", s.handleRestore)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/preview", s.handleShowPreview)
	mux.HandleFunc("DELETE /api/preview", s.handleClosePreview)
	mux.Handle("GET "+previewPath+"{token}", s.previews)
	mux.HandleFunc("GET /api/download", s.handleDownload)

	mux.Handle("/", s.frontendHandler())

	return withLogging(withSecurityHeaders(gzhttp.GzipHandler(mux)))
}

// frontendHandler serves the embedded UI with an index.html fallback for
// unknown paths.
func (s *server) frontendHandler() http.Handler {
	fileServer := http.FileServer(http.FS(s.frontend))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			httpError(w, http.StatusNotFound, "not found")
			return
		}
		path := r.URL.Path
		if path != "/" {
			f, err := s.frontend.Open(strings.TrimPrefix(path, "/"))
			if err != nil {
				r.URL.Path = "/"
			} else {
				f.Close()
			}
		}
		fileServer.ServeHTTP(w, r)
	})
}
