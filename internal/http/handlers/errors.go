package handlers

import (
	"errors"
	"net/http"

	"busbooking/internal/clients"
	"busbooking/internal/domain"
	"busbooking/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	respondDomainError(c, err, nil)
}

// respondDomainError is RespondDomainError with a payload carried as details,
// used when a partial result must reach the caller together with the error.
func respondDomainError(c *gin.Context, err error, details any) {
	var apiErr *clients.APIError
	switch {
	case domain.IsInternal(err):
		var ie domain.InternalError
		errors.As(err, &ie)
		respondError(c, http.StatusInternalServerError, "internal_error", ie.Error(), details)
	case domain.IsValidation(err):
		if details == nil {
			details = validationDetails(err)
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), details)
	case domain.IsStaleAvailability(err):
		respondError(c, http.StatusConflict, "seat_unavailable", err.Error(), details)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), details)
	case domain.IsSessionIntegrity(err):
		respondError(c, http.StatusUnprocessableEntity, "session_integrity", err.Error(), details)
	case domain.IsPartialMaterialization(err):
		respondError(c, http.StatusMultiStatus, "partial_booking", err.Error(), details)
	case domain.IsTotalMaterializationFailure(err):
		respondError(c, http.StatusBadGateway, "materialization_failed", err.Error(), details)
	case errors.As(err, &apiErr):
		respondError(c, http.StatusBadGateway, "upstream_error", apiErr.Message, details)
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", details)
	}
}

type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// validationDetails flattens errors.Join trees into one entry per field.
func validationDetails(err error) []fieldError {
	var out []fieldError
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var v domain.ValidationError
		if errors.As(e, &v) {
			msg := v.Msg
			if msg == "" {
				msg = v.Error()
			}
			out = append(out, fieldError{Field: v.Field, Message: msg})
		}
	}
	walk(err)
	return out
}
