package api

import (
	"io"
	"net/http"

	"github.com/ayusman/kathakali/internal/rig"
)

// maxSkeletonSize bounds an uploaded skeleton document.
const maxSkeletonSize = 4 << 20

// RigHandler serves /api/rig. POST binds a new skeleton; GET returns
// the current pose.
type RigHandler struct {
	ctl     Controller
	aliases rig.AliasTable
}

// NewRigHandler creates the handler. aliases is the table the session
// resolves joints with; nil means the default table.
func NewRigHandler(ctl Controller, aliases rig.AliasTable) *RigHandler {
	return &RigHandler{ctl: ctl, aliases: aliases}
}

type rigResponse struct {
	SkeletonID    string          `json:"skeletonId"`
	MissingJoints []rig.JointName `json:"missingJoints"`
}

func (h *RigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap, ok := h.ctl.Snapshot()
		if !ok {
			writeError(w, http.StatusNotFound, "No skeleton loaded")
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case http.MethodPost:
		h.load(w, r)
	case http.MethodDelete:
		h.ctl.SetSkeleton(nil)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (h *RigHandler) load(w http.ResponseWriter, r *http.Request) {
	sk, err := rig.Decode(io.LimitReader(r.Body, maxSkeletonSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.ctl.SetSkeleton(sk)

	missing := make([]rig.JointName, 0)
	res := rig.ResolverFor(sk, h.aliases)
	for _, j := range rig.AllJoints() {
		if _, ok := res.ResolveJoint(j); !ok {
			missing = append(missing, j)
		}
	}
	writeJSON(w, http.StatusCreated, rigResponse{SkeletonID: sk.ID, MissingJoints: missing})
}
