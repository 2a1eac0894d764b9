package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DecodeJSONRequest decodes the request body into dst, rejecting unknown
// fields so client typos surface as errors instead of silent defaults.
func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
