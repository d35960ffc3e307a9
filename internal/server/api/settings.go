package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/kathakali/internal/retarget"
	"github.com/ayusman/kathakali/internal/store"
)

// SettingsHandler serves /api/settings.
type SettingsHandler struct {
	store     *store.Store
	signTable func(variant string) error
}

// NewSettingsHandler creates the handler. signTable applies a sign table
// variant to the running session.
func NewSettingsHandler(s *store.Store, signTable func(variant string) error) *SettingsHandler {
	return &SettingsHandler{store: s, signTable: signTable}
}

type settingsResponse struct {
	SignTable       string   `json:"signTable"`
	SignTables      []string `json:"signTables"`
	TrackingEnabled bool     `json:"trackingEnabled"`
}

type updateSettingsRequest struct {
	SignTable string `json:"signTable"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPut:
		h.update(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (h *SettingsHandler) current() (settingsResponse, error) {
	settings := h.store.Settings()
	table, err := settings.GetOr(store.SettingSignTable, retarget.VariantMirrored)
	if err != nil {
		return settingsResponse{}, err
	}
	enabled, err := settings.GetOr(store.SettingTrackingEnabled, "false")
	if err != nil {
		return settingsResponse{}, err
	}
	return settingsResponse{
		SignTable:       table,
		SignTables:      []string{retarget.VariantMirrored, retarget.VariantPassthrough},
		TrackingEnabled: enabled == "true",
	}, nil
}

func (h *SettingsHandler) get(w http.ResponseWriter) {
	resp, err := h.current()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.SignTable != "" {
		if _, err := retarget.SignTableFor(req.SignTable); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if h.signTable != nil {
			if err := h.signTable(req.SignTable); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		if err := h.store.Settings().Set(store.SettingSignTable, req.SignTable); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}
	h.get(w)
}
