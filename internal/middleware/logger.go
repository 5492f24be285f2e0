package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger emits one structured log line per request, carrying a
// correlation ID that is echoed back to the client.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)

		if len(c.Errors) != 0 {
			log.Error().
				Str("request_id", requestID).
				Err(c.Errors.Last().Err).
				Msg("request failed")
		}

		log.Debug().
			Str("request_id", requestID).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("")
	}
}
