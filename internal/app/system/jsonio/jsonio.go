// Package jsonio reads and writes the JSON bodies of the HTTP API.
package jsonio

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// ErrBadBody is returned by ReadDocument for bodies that are not a JSON object.
var ErrBadBody = errors.New("request body must be a JSON object")

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, map[string]string{"error": msg})
}

// ReadDocument parses the request body as a single JSON object.
func ReadDocument(w http.ResponseWriter, r *http.Request) (docstore.Document, error) {
	doc, err := docstore.ReadJSON(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBody, err)
	}
	return doc, nil
}
