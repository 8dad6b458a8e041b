package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"tedxcmr/internal/dto"
)

// LoggingMiddleware writes one line per request. 5xx goes out at error level,
// 4xx at warn, everything else at info.
func LoggingMiddleware(log *zerolog.Logger) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Int("size", c.Writer.Size()).
			Msg("request")
	}
}

// BodyLimit caps request bodies at limit bytes. Declared oversize bodies are
// refused up front; the rest fail while being read.
func BodyLimit(limit int64) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		if c.Request.ContentLength > limit {
			dto.PayloadTooLargeError(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// Recovery turns a handler panic into the standard 500 envelope. It must sit
// after LoggingMiddleware and the metrics middleware so both see the 500.
func Recovery(log *zerolog.Logger) ginext.HandlerFunc {
	return func(c *ginext.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				dto.InternalServerError(c)
			}
		}()
		c.Next()
	}
}
