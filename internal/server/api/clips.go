package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/kathakali/internal/clip"
	"github.com/ayusman/kathakali/internal/store"
)

// maxClipSize bounds an uploaded clip document.
const maxClipSize = 8 << 20

// ClipHandler serves /api/clips and /api/clips/{id}. Every change to the
// library calls reload so the session sees the new order.
type ClipHandler struct {
	store  *store.Store
	reload func() error
	logger *log.Logger
}

// NewClipHandler creates the handler. reload may be nil.
func NewClipHandler(s *store.Store, reload func() error, logger *log.Logger) *ClipHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ClipHandler{store: s, reload: reload, logger: logger}
}

type clipResponse struct {
	ID        string  `json:"id"`
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Duration  float64 `json:"duration"`
	Tracks    int     `json:"tracks"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listClipsResponse struct {
	Clips []clipResponse `json:"clips"`
}

func toClipResponse(c *store.Clip, index int) clipResponse {
	resp := clipResponse{
		ID:        c.ID,
		Index:     index,
		Name:      c.Name,
		Duration:  c.Duration,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if decoded, err := clip.Decode(c.Data); err == nil {
		resp.Tracks = len(decoded.Tracks)
	}
	return resp
}

// ServeHTTP routes collection and item requests.
func (h *ClipHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/clips"), "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		methodNotAllowed(w)
	}
}

func (h *ClipHandler) list(w http.ResponseWriter) {
	clips, err := h.store.Clips().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list clips")
		return
	}
	resp := listClipsResponse{Clips: make([]clipResponse, 0, len(clips))}
	for i, c := range clips {
		resp.Clips = append(resp.Clips, toClipResponse(c, i))
	}
	writeJSON(w, http.StatusOK, resp)
}

// get returns the stored clip document itself.
func (h *ClipHandler) get(w http.ResponseWriter, id string) {
	c, err := h.store.Clips().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get clip")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(c.Data)
}

// readClip decodes and validates the request body as a clip document.
func readClip(w http.ResponseWriter, r *http.Request) ([]byte, *clip.Clip, bool) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxClipSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return nil, nil, false
	}
	decoded, err := clip.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	return data, decoded, true
}

func (h *ClipHandler) create(w http.ResponseWriter, r *http.Request) {
	data, decoded, ok := readClip(w, r)
	if !ok {
		return
	}

	if _, err := h.store.Clips().GetByName(decoded.Name); err == nil {
		writeError(w, http.StatusConflict, "A clip with this name already exists")
		return
	}

	c := &store.Clip{Name: decoded.Name, Duration: decoded.Duration, Data: data}
	if err := h.store.Clips().Create(c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create clip")
		return
	}

	index := h.indexOf(c.ID)
	h.reloadLibrary()
	writeJSON(w, http.StatusCreated, toClipResponse(c, index))
}

func (h *ClipHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.store.Clips().GetByID(id)
	if err != nil {
		h.storeError(w, err, "Failed to get clip")
		return
	}

	data, decoded, ok := readClip(w, r)
	if !ok {
		return
	}
	c.Name = decoded.Name
	c.Duration = decoded.Duration
	c.Data = data

	if err := h.store.Clips().Update(c); err != nil {
		h.storeError(w, err, "Failed to update clip")
		return
	}

	h.reloadLibrary()
	writeJSON(w, http.StatusOK, toClipResponse(c, h.indexOf(c.ID)))
}

func (h *ClipHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Clips().Delete(id); err != nil {
		h.storeError(w, err, "Failed to delete clip")
		return
	}
	h.reloadLibrary()
	w.WriteHeader(http.StatusNoContent)
}

func (h *ClipHandler) indexOf(id string) int {
	clips, err := h.store.Clips().List()
	if err != nil {
		return -1
	}
	for i, c := range clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (h *ClipHandler) reloadLibrary() {
	if h.reload == nil {
		return
	}
	if err := h.reload(); err != nil {
		h.logger.Printf("api: reload clips: %v", err)
	}
}

func (h *ClipHandler) storeError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}
	writeError(w, http.StatusInternalServerError, message)
}
