package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/fpang/photo-restorer/internal/cli"
	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/fpang/photo-restorer/internal/workflow"
	"github.com/rs/zerolog/log"
)

const maxJSONBody = 256 << 10

// stateView is the JSON shape of GET /api/state and of every event response.
type stateView struct {
	workflow.State
	DownloadURL string `json:"downloadUrl,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

func newStateView(st workflow.State) stateView {
	view := stateView{State: st}
	if st.Restored != "" {
		view.DownloadURL = "/api/download"
	}
	return view
}

// session returns the caller's session, creating one (and its cookie) if the
// request carries none or an expired one.
func (s *server) session(w http.ResponseWriter, r *http.Request) *session {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions.get(c.Value); ok {
			return sess
		}
	}
	sess := s.sessions.create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return sess
}

// dispatch applies ev to the caller's workflow and responds with the state.
// Validation failures are 422, events the current step ignores are 409.
func (s *server) dispatch(w http.ResponseWriter, r *http.Request, ev workflow.Event) {
	sess := s.session(w, r)
	st, err := sess.ctrl.Dispatch(ev)

	view := newStateView(st)

	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrMissingImage), errors.Is(err, workflow.ErrEmptyPrompt):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrInvalidTransition):
		status = http.StatusConflict
		view.Detail = err.Error()
	case errors.Is(err, workflow.ErrClosed):
		status = http.StatusGone
		view.Detail = err.Error()
	default:
		log.Error().Err(err).Str("event", ev.EventName()).Msg("Unexpected workflow error")
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, view)
}

// GET /api/state
func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	respondJSON(w, http.StatusOK, newStateView(sess.ctrl.State()))
}

// POST /api/image (multipart, field "image")
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		httpError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image too large (max %s)", cli.FormatBytes(int(s.maxUpload))))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image too large (max %s)", cli.FormatBytes(int(s.maxUpload))))
			return
		}
		httpError(w, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	img, err := filehandler.NewImage(header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, filehandler.ErrUnsupportedType) {
			httpError(w, http.StatusUnsupportedMediaType, "unsupported image type: use PNG, JPEG or WEBP")
			return
		}
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.dispatch(w, r, workflow.SelectImage{Image: img})
}

// POST /api/pick
// Opens a native OS file dialog on the machine running the server and
// selects the chosen photo.
func (s *server) handlePick(w http.ResponseWriter, r *http.Request) {
	if s.pickFile == nil {
		httpError(w, http.StatusNotFound, "file dialog disabled")
		return
	}

	path, err := s.pickFile()
	if err != nil {
		if errors.Is(err, cli.ErrNoSelection) {
			s.handleState(w, r)
			return
		}
		log.Error().Err(err).Msg("File picker failed")
		httpError(w, http.StatusInternalServerError, "file picker failed")
		return
	}

	img, err := filehandler.LoadImage(path)
	if err != nil {
		if errors.Is(err, filehandler.ErrUnsupportedType) {
			httpError(w, http.StatusUnsupportedMediaType, "unsupported image type: use PNG, JPEG or WEBP")
			return
		}
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.dispatch(w, r, workflow.SelectImage{Image: img})
}

// DELETE /api/image
func (s *server) handleClearImage(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, workflow.ClearImage{})
}

// POST /api/analyze
func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, workflow.Analyze{})
}

// PUT /api/prompt {"prompt": "..."}
func (s *server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt *string `json:"prompt"`
	}
	if err := decodeJSON(w, r, &req); err != nil || req.Prompt == nil {
		httpError(w, http.StatusBadRequest, "body must be {\"prompt\": string}")
		return
	}
	s.dispatch(w, r, workflow.EditPrompt{Text: *req.Prompt})
}

// POST /api/restore
func (s *server) handleRestore(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, workflow.Restore{})
}

// POST /api/reset
func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, workflow.Reset{})
}

// POST /api/preview {"target": "original"|"restored"}
func (s *server) handleShowPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target workflow.PreviewTarget `json:"target"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Target != workflow.PreviewOriginal && req.Target != workflow.PreviewRestored {
		httpError(w, http.StatusBadRequest, "target must be 'original' or 'restored'")
		return
	}
	s.dispatch(w, r, workflow.ShowPreview{Target: req.Target})
}

// DELETE /api/preview
func (s *server) handleClosePreview(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, workflow.ClosePreview{})
}

// GET /api/download
func (s *server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	st := sess.ctrl.State()
	if st.Step != workflow.StepResult || st.Restored == "" {
		httpError(w, http.StatusNotFound, "no restored image")
		return
	}

	data, mimeType, err := st.Restored.Bytes()
	if err != nil {
		log.Error().Err(err).Str("session", sess.id).Msg("Restored image is not a valid data URI")
		httpError(w, http.StatusInternalServerError, "restored image unavailable")
		return
	}

	filename := filehandler.RestoredFilename(s.now())
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)

	log.Info().Str("filename", filename).Int("bytes", len(data)).Msg("Restored image downloaded")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}
