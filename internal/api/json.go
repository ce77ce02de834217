package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"fleetroute/internal/model"
)

// Problem represents an RFC7807 problem details response body. Code
// carries the machine-readable validation reason when one applies.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Code     string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeJSON(w, status, Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

// writeError maps a solver error onto the wire: validation failures are
// 400s with their code, anything else is a 500.
func writeError(w http.ResponseWriter, err error, instance string) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, Problem{
			Type:     "about:blank",
			Title:    "Invalid optimize request",
			Status:   http.StatusBadRequest,
			Detail:   verr.Detail,
			Instance: instance,
			Code:     verr.Code,
		})
		return
	}
	writeProblem(w, http.StatusInternalServerError, "Optimize failed", err.Error(), instance)
}
