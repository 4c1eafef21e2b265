package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"organizer/internal/core"
	"organizer/internal/log"
)

// Error codes carried in the JSON error body.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeValidation      = "validation_error"
	CodeInvalidAmount   = "invalid_amount"
	CodeNotFound        = "not_found"
	CodeInternal        = "internal_error"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusFor maps a service error to its HTTP status and body. Failures that
// are not one of the domain errors never leak their message.
func statusFor(err error) (int, errorBody) {
	var verr *core.ValidationError
	switch {
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized, errorBody{Code: CodeUnauthenticated, Message: "authentication required"}
	case errors.As(err, &verr):
		code := CodeValidation
		if errors.Is(err, core.ErrInvalidAmount) {
			code = CodeInvalidAmount
		}
		return http.StatusUnprocessableEntity, errorBody{Code: code, Message: verr.Error(), Field: verr.Field}
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, errorBody{Code: CodeInvalidAmount, Message: err.Error(), Field: "amount"}
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, errorBody{Code: CodeValidation, Message: err.Error()}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorBody{Code: CodeNotFound, Message: "transaction not found"}
	default:
		return http.StatusInternalServerError, errorBody{Code: CodeInternal, Message: "internal error"}
	}
}

// writeError renders err and logs server-side failures.
func writeError(c *gin.Context, op string, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger := log.NewStructuredLogger(log.FromContext(c.Request.Context()))
		logger.LogError(c.Request.Context(), "Request failed", err, op, nil)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: body})
}
