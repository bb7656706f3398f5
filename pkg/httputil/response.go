// Package httputil provides HTTP handler utilities for consistent error
// handling, JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openhearth/hearth/pkg/errs"
)

// ErrorResponse is the standardized error body.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteDomainError maps a domain error to its HTTP status: Forbidden to 403,
// NotFound to 404, Conflict to 409, Validation to 422 with the field map.
// Anything else is a 500 with a generic body so internals never leak.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsValidation(err):
		var verr *errs.ValidationError
		fields := map[string]string{}
		if errors.As(err, &verr) {
			fields = verr.Fields
		}
		writeErrorBody(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Fields: fields})
	case errs.IsForbidden(err):
		writeErrorBody(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errs.IsNotFound(err):
		writeErrorBody(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errs.IsConflict(err):
		writeErrorBody(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		writeErrorBody(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func writeErrorBody(w http.ResponseWriter, status int, body ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	writeErrorBody(w, status, ErrorResponse{Error: message})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusUnauthorized, message)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
