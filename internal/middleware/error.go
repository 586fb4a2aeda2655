package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler logs errors attached to the context and, when the handler
// wrote nothing, answers with the status of the last one.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			ev := log.Error()
			if sc, ok := e.Err.(interface{ StatusCode() int }); ok && sc.StatusCode() < http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Err(e.Err).
				Str("trace_id", traceID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Interface("meta", e.Meta).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		if err, ok := lastErr.Err.(interface{ StatusCode() int }); ok {
			status = err.StatusCode()
		}
		abortWithError(c, status, http.StatusText(status))
	}
}

// abortWithError answers JSON to clients that ask for it and plain text to
// browsers.
func abortWithError(c *gin.Context, status int, message string) {
	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		c.AbortWithStatusJSON(status, ErrorResponse{
			Code:    status,
			Message: message,
			TraceID: c.GetString(ContextRequestID),
		})
		return
	}
	c.Abort()
	c.String(status, message)
}
