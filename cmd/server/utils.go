package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lychee-technology/rhizo"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 32 << 20

// APIResponse is the standard response format
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeRhizoError maps err to a status code and writes it with its error code.
func writeRhizoError(w http.ResponseWriter, err error) error {
	return writeJSON(w, statusFor(err), APIResponse{
		Success: false,
		Error:   err.Error(),
		Code:    rhizo.ErrorCode(err),
	})
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// statusFor maps error types to HTTP status codes.
func statusFor(err error) int {
	var re *rhizo.RhizoError
	if !errors.As(err, &re) {
		return http.StatusInternalServerError
	}
	switch re.Type {
	case rhizo.ErrorTypeConversion:
		return http.StatusBadRequest
	case rhizo.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case rhizo.ErrorTypeStorage:
		if re.Code == rhizo.ErrCodeSinkUnavailable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

// splitJSONObjects returns the elements of a JSON array, or body itself
// when it is not an array.
func splitJSONObjects(body []byte) ([]json.RawMessage, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty body")
	}
	if trimmed[0] != '[' {
		return []json.RawMessage{trimmed}, true, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false, err
	}
	return items, false, nil
}
