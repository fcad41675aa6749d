// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LumenClass Contributors

package httpapi

import (
	"encoding/json"
	"net/http"
)

// maxBodySize bounds request bodies. The API only carries small JSON
// payloads.
const maxBodySize = 64 << 10

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Code: code, Error: msg})
}

// decodeJSON decodes a bounded JSON body into T. On failure it writes a
// 400 and reports false.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return v, false
	}
	return v, true
}
