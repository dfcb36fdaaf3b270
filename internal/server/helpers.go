package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeResult maps an action envelope to an HTTP status: 200 on success,
// 400 for caller errors, 500 otherwise. The envelope is always the body.
func writeResult(w http.ResponseWriter, res schema.ActionResult) {
	status := http.StatusOK
	if !res.Success {
		if schema.IsCallerError(res.Code) {
			status = http.StatusBadRequest
		} else {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, status, res)
}

// queryInt extracts an integer query param with a default value.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
