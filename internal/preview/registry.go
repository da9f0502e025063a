// Package preview hands out short-lived URLs for in-memory images, the
// server-side counterpart of a browser object URL. Each URL is owned by one
// holder and stops resolving as soon as the holder releases it.
package preview

import (
	"net/http"
	"strings"
	"sync"

	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Registry maps preview tokens to image bytes and serves them over HTTP.
type Registry struct {
	basePath     string
	maxDimension int

	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	data     []byte
	mimeType string

	thumbOnce sync.Once
	thumb     []byte
	thumbMIME string
}

// NewRegistry creates a registry whose URLs live under basePath (for example
// "/api/preview/"). Images larger than maxDimension are downscaled when
// served; zero serves the original bytes.
func NewRegistry(basePath string, maxDimension int) *Registry {
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return &Registry{
		basePath:     basePath,
		maxDimension: maxDimension,
		entries:      make(map[string]*entry),
	}
}

// Handle is an owned preview URL. Release revokes it; calling Release more
// than once is a no-op.
type Handle struct {
	registry *Registry
	token    string
	once     sync.Once
}

// Open registers the image and returns its handle.
func (r *Registry) Open(data []byte, mimeType string) *Handle {
	token := uuid.NewString()

	r.mu.Lock()
	r.entries[token] = &entry{data: data, mimeType: mimeType}
	live := len(r.entries)
	r.mu.Unlock()

	log.Debug().Str("token", token).Int("live", live).Msg("Preview URL created")
	return &Handle{registry: r, token: token}
}

// Acquire is Open for holders that only need the URL and a release func.
func (r *Registry) Acquire(data []byte, mimeType string) (string, func()) {
	h := r.Open(data, mimeType)
	return h.URL(), h.Release
}

// URL is the path the preview is served at.
func (h *Handle) URL() string {
	return h.registry.basePath + h.token
}

// Release revokes the URL and drops the image bytes.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.registry.mu.Lock()
		delete(h.registry.entries, h.token)
		live := len(h.registry.entries)
		h.registry.mu.Unlock()
		log.Debug().Str("token", h.token).Int("live", live).Msg("Preview URL revoked")
	})
}

// Len returns the number of live previews.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ServeHTTP serves GET <basePath><token>. Revoked or unknown tokens are 404.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token, ok := strings.CutPrefix(req.URL.Path, r.basePath)
	if !ok || token == "" || strings.Contains(token, "/") {
		http.NotFound(w, req)
		return
	}

	r.mu.RLock()
	e := r.entries[token]
	r.mu.RUnlock()
	if e == nil {
		http.NotFound(w, req)
		return
	}

	data, mimeType := e.data, e.mimeType
	if r.maxDimension > 0 {
		data, mimeType = e.thumbnail(r.maxDimension)
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Write(data)
}

// thumbnail returns the downscaled preview, computed once per entry. If the
// image cannot be decoded the original bytes are served.
func (e *entry) thumbnail(maxDimension int) ([]byte, string) {
	e.thumbOnce.Do(func() {
		thumb, mimeType, err := filehandler.GenerateThumbnail(e.data, e.mimeType, maxDimension)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to generate preview thumbnail, serving original")
			e.thumb, e.thumbMIME = e.data, e.mimeType
			return
		}
		e.thumb, e.thumbMIME = thumb, mimeType
	})
	return e.thumb, e.thumbMIME
}
