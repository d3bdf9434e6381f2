// JSON response helpers: envelope writers and the mapping from the core
// error kinds to HTTP status codes.
package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeDomainError maps a ledger error to its HTTP status. Internal detail
// never leaks to the client; the handler logs it separately.
func writeDomainError(w http.ResponseWriter, err error) {
	switch core.KindOf(err) {
	case core.KindNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case core.KindValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case core.KindClassification:
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
