package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// parseJSON decodes the request body into a value of type T.
// Trailing garbage after the JSON document is rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("failed to decode request body: %w", err)
	}
	if dec.More() {
		return v, fmt.Errorf("unexpected data after JSON body")
	}
	return v, nil
}
