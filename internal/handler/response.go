package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go-resell-backoffice/internal/model"
	"go-resell-backoffice/internal/schema"
	"go-resell-backoffice/internal/service"
	"go-resell-backoffice/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	writeEnvelope(w, status, model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeMutation is writeSuccess for operations that tell the operator what
// happened.
func writeMutation(w http.ResponseWriter, status int, data any, notification model.Notification) {
	writeEnvelope(w, status, model.APIResponse{
		Success:      true,
		Data:         data,
		Notification: &notification,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeEnvelope(w, status, model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// writeMutationError is writeError plus the failure notification for action.
func writeMutationError(w http.ResponseWriter, action service.Action, err error) {
	status, body := classify(err)
	notification := service.FailureNotification(action, err)
	writeEnvelope(w, status, model.APIResponse{
		Success:      false,
		Error:        body,
		Notification: &notification,
	})
}

func classify(err error) (int, *model.APIError) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	var validationErr *schema.ValidationError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	} else if errors.As(err, &validationErr) {
		status = http.StatusConflict
		body.Code = "CONSTRAINT_VIOLATION"
		body.Message = "Row does not satisfy the table schema"
		body.Details = validationErr.Error()
	} else if errors.Is(err, model.ErrConstraintViolation) {
		status = http.StatusConflict
		body.Code = "CONSTRAINT_VIOLATION"
		body.Message = "The table rejected the row"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrTransport) {
		status = http.StatusServiceUnavailable
		body.Code = "TRANSPORT_ERROR"
		body.Message = "Backend unavailable"
		slog.Error("backend unavailable", "error", err.Error())
	} else if errors.Is(err, model.ErrTrashItemNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Trash item not found"
	} else if errors.Is(err, model.ErrRowNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "Row not found"
	} else if errors.Is(err, model.ErrUnknownTable) {
		status = http.StatusBadRequest
		body.Code = "UNKNOWN_TABLE"
		body.Message = "Unknown table"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrIdentityNotFound) {
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "User not found"
	} else if errors.Is(err, model.ErrIdentityExists) {
		status = http.StatusConflict
		body.Code = "ALREADY_EXISTS"
		body.Message = "User already exists"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid credentials"
	} else if errors.Is(err, model.ErrUnauthorized) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = "FORBIDDEN"
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrTokenNotFound) || errors.Is(err, model.ErrTokenExpired) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid or expired token"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
		body.Details = err.Error()
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	return status, body
}

func writeEnvelope(w http.ResponseWriter, status int, payload model.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeBody reads a JSON request body into dst, answering 400 itself when
// the body is malformed. Numbers decode as json.Number so integer columns
// keep their precision.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return false
	}
	return true
}

func parseIntOrDefault(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
