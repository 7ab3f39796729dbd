// Package apierr turns data access errors into HTTP answers
package apierr

import (
	"bitwise74/invoice-api/internal/store"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Map returns the status code and the message shown to the user for err.
// Unknown errors map to 500.
func Map(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found. It either doesn't exist or you don't own it"
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden, "You may not do this"
	case errors.Is(err, store.ErrAuthRequired):
		return http.StatusUnauthorized, "Please sign in to continue"
	case errors.Is(err, store.ErrUploadIncomplete):
		return http.StatusConflict, "The PDF of this invoice was never uploaded, please upload the PDF again"
	case errors.Is(err, store.ErrQuotaExceeded):
		return http.StatusConflict, "Not enough storage space left"
	case errors.Is(err, store.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "This feature isn't available right now"
	case errors.Is(err, store.ErrInvalidInput):
		return http.StatusBadRequest, inputMessage(err)
	}

	return http.StatusInternalServerError, "Internal server error"
}

// inputMessage drops the sentinel prefix of wrapped validation errors
func inputMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, store.ErrInvalidInput.Error()+": "); ok {
		msg = rest
	}

	if msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// Abort answers with the mapped error. Internal errors are logged with
// action, e.g. "delete invoice".
func Abort(c *gin.Context, err error, action string) {
	requestID := c.GetString("requestID")

	code, msg := Map(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("Failed to "+action, zap.Error(err), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(code, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}

// Fail answers with a fixed status and message
func Fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}
