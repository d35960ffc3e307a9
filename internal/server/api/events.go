package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/kathakali/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventsHandler serves GET /api/events?limit=n&session=id.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates the handler.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

type listEventsResponse struct {
	Events []store.Event `json:"events"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	var (
		events []store.Event
		err    error
	)
	if id := r.URL.Query().Get("session"); id != "" {
		events, err = h.store.Events().BySession(id)
	} else {
		limit := defaultEventLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, perr := strconv.Atoi(v)
			if perr != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			limit = min(n, maxEventLimit)
		}
		events, err = h.store.Events().Recent(limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	if events == nil {
		events = []store.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
