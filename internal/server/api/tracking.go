package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/ayusman/kathakali/internal/store"
)

// TrackingHandler serves /api/tracking. POST {"enabled": true} turns
// live tracking on; the choice is remembered across restarts.
type TrackingHandler struct {
	ctl    Controller
	store  *store.Store
	logger *log.Logger
}

// NewTrackingHandler creates the handler. s may be nil.
func NewTrackingHandler(ctl Controller, s *store.Store, logger *log.Logger) *TrackingHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &TrackingHandler{ctl: ctl, store: s, logger: logger}
}

type trackingRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.ctl.Status())
	case http.MethodPost:
		h.set(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *TrackingHandler) set(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	if *req.Enabled {
		if err := h.ctl.Enable(); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	} else {
		h.ctl.Disable()
	}

	if h.store != nil {
		if err := h.store.Settings().Set(store.SettingTrackingEnabled, strconv.FormatBool(*req.Enabled)); err != nil {
			h.logger.Printf("api: save tracking setting: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, h.ctl.Status())
}
