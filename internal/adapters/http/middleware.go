package http

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// contextKeyRequestID is the echo context key the handlers read the request
// id back from.
const contextKeyRequestID = "request_id"

// RequestIDMiddleware tags every request with an id, honoring one the
// client already sent, and echoes it in the response header.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				var buf [16]byte
				_, _ = rand.Read(buf[:])
				id = hex.EncodeToString(buf[:])
			}
			c.Set(contextKeyRequestID, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// LoggingMiddleware writes one structured line per request after the
// handler returns.
func LoggingMiddleware(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req, res := c.Request(), c.Response()
			logger.Info("request",
				"request_id", c.Get(contextKeyRequestID),
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"bytes_out", res.Size,
				"remote_ip", c.RealIP(),
				"latency_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
