package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/logger"
)

const internalErrorMessage = "Internal server error"

// errorResponse is the body of every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// statusFor maps a service error to an HTTP status and a caller-safe message.
// Dependency and unexpected errors never leak their detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, message(err)
	case domain.IsValidation(err):
		return http.StatusBadRequest, message(err)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, message(err)
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, message(err)
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// message drops the sentinel prefix so callers see "question is required"
// rather than "invalid input: question is required".
func message(err error) string {
	msg := err.Error()
	for _, prefix := range []string{domain.ErrInvalidInput.Error() + ": ", domain.ErrNotFound.Error() + ": "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	if msg == "" {
		return err.Error()
	}
	r, size := utf8.DecodeRuneInString(msg)
	return string(unicode.ToUpper(r)) + msg[size:]
}

// fail writes the error response for err and logs server-side failures.
func fail(c *gin.Context, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("%s %s: %s: %v", c.Request.Method, c.Request.URL.Path, op, err)
	} else {
		logger.Debug("%s %s: %s: %v", c.Request.Method, c.Request.URL.Path, op, err)
	}
	c.AbortWithStatusJSON(status, errorResponse{Success: false, Message: msg})
}

// badRequest rejects malformed input before it reaches a service.
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Success: false, Message: msg})
}
