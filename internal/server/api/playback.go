package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/kathakali/internal/clip"
	"github.com/ayusman/kathakali/internal/session"
)

// PlaybackHandler serves /api/playback.
//
//	POST   {"index": 2} or {"next": true}   play a clip
//	DELETE ?expedited=true                   stop
type PlaybackHandler struct {
	ctl Controller
}

// NewPlaybackHandler creates the handler.
func NewPlaybackHandler(ctl Controller) *PlaybackHandler {
	return &PlaybackHandler{ctl: ctl}
}

type playRequest struct {
	Index *int `json:"index"`
	Next  bool `json:"next"`
}

func (h *PlaybackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctl.Status())
	case http.MethodPost:
		h.play(w, r)
	case http.MethodDelete:
		expedited, _ := strconv.ParseBool(r.URL.Query().Get("expedited"))
		h.ctl.StopClip(expedited)
		writeJSON(w, http.StatusOK, h.ctl.Status())
	default:
		methodNotAllowed(w)
	}
}

func (h *PlaybackHandler) play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var err error
	switch {
	case req.Next:
		err = h.ctl.NextClip()
	case req.Index != nil:
		err = h.ctl.PlayClip(*req.Index)
	default:
		writeError(w, http.StatusBadRequest, "index or next is required")
		return
	}

	switch {
	case errors.Is(err, clip.ErrInvalidIndex):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrTrackingActive), errors.Is(err, clip.ErrUnbound):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, h.ctl.Status())
	}
}
