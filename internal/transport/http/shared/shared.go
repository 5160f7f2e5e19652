// Package shared centralizes JSON envelope writing so every handler returns
// consistent bodies and every domain error maps to one status code.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "gastro/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into `{error: message}` with the
// status its code maps to. Anything that is not a domain error becomes an
// opaque 500 so internals never leak to POS clients.
func WriteError(w http.ResponseWriter, err error) {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), map[string]string{"error": de.Message})
}

// DecodeJSON decodes the request body into dst, returning a bad-request
// domain error on malformed input.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.Wrap(dErrors.CodeBadRequest, "invalid request body", err)
	}
	return nil
}

// PathID parses the named chi URL parameter as an id. On failure it writes a
// bad-request response and returns ok=false.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid "+name))
		return 0, false
	}
	return id, true
}
