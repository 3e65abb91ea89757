// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/devops-challenge/userapi/internal/handler/dto"
	"github.com/devops-challenge/userapi/internal/pagination"
	"github.com/devops-challenge/userapi/internal/service"
)

// Handler serves the service-level endpoints.
type Handler struct {
	name    string
	version string
}

// New creates a new Handler instance.
func New(name, version string) *Handler {
	return &Handler{name: name, version: version}
}

// Info reports the service name and version.
// GET /
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.InfoResponse{
		Name:    h.name,
		Version: h.version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeValidationError writes a 422 listing the rejected fields.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
		Error:  "Request validation failed",
		Code:   "VALIDATION_FAILED",
		Fields: fields,
	})
}

// writeServiceError maps service errors to HTTP responses.
// Anything not recognized is logged and reported as an opaque 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var conflict *service.ConflictError
	var paramErr *pagination.ParamError

	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{
			Error:  "Email already exists",
			Code:   "EMAIL_EXISTS",
			Detail: conflict.Detail,
		})
	case errors.As(err, &paramErr):
		writeValidationError(w, map[string]string{paramErr.Param: paramErr.Reason})
	case errors.Is(err, service.ErrInvalidWindow):
		writeValidationError(w, nil)
	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
