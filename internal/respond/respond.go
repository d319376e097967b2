// Package respond writes the uniform response envelope every handler uses.
// No handler returns a raw entity or a bare error string.
package respond

import (
	"errors"
	"net/http"

	"github.com/ClipStreamLabs/clipstream/backend/internal/fault"
	"github.com/gin-gonic/gin"
)

// Envelope is the single outward-facing result shape.
type Envelope struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

const fallbackMessage = "something went wrong, please try again"

// Success writes a success envelope with the provided status code.
func Success(ginContext *gin.Context, statusCode int, data any, message string) {
	ginContext.JSON(statusCode, Envelope{
		StatusCode: statusCode,
		Success:    statusCode < http.StatusBadRequest,
		Data:       data,
		Message:    message,
	})
}

// OK writes a 200 success envelope.
func OK(ginContext *gin.Context, data any, message string) {
	Success(ginContext, http.StatusOK, data, message)
}

// Failure classifies the error and writes the matching failure envelope.
// Unclassified errors map to an internal dependency failure so no internal
// detail leaks into the message field.
func Failure(ginContext *gin.Context, err error) {
	statusCode := StatusFor(fault.KindOf(err))
	message := fallbackMessage
	codes := []string{"internal"}

	var classified *fault.Fault
	if errors.As(err, &classified) {
		message = classified.Message()
		codes = []string{classified.Code()}
	}

	ginContext.JSON(statusCode, Envelope{
		StatusCode: statusCode,
		Success:    false,
		Data:       nil,
		Message:    message,
		Errors:     codes,
	})
}

// AbortUnauthorized writes a 401 failure envelope and stops the handler chain.
func AbortUnauthorized(ginContext *gin.Context, message string) {
	ginContext.AbortWithStatusJSON(http.StatusUnauthorized, Envelope{
		StatusCode: http.StatusUnauthorized,
		Success:    false,
		Data:       nil,
		Message:    message,
		Errors:     []string{"auth.unauthorized"},
	})
}

// StatusFor maps a fault kind onto its HTTP status code.
func StatusFor(kind fault.Kind) int {
	switch kind {
	case fault.KindInvalidArgument:
		return http.StatusBadRequest
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindUnauthorized:
		return http.StatusUnauthorized
	case fault.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
