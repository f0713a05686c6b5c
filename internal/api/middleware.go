package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"proverka/internal/apperr"
	"proverka/internal/journal"
)

const requestIDKey = "request_id"

func (a *App) requestLogger(ids *journal.IDSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := ids.New()
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		a.Log.LogAttrs(c.Request.Context(), slog.LevelInfo, "request",
			slog.String(requestIDKey, rid),
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// bodyLimit: заявленный Content-Length сверх лимита отсекается сразу,
// остальное режет MaxBytesReader при чтении.
func (a *App) bodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > a.BodyLimit {
			a.fail(c, apperr.PayloadTooLarge("request body exceeds %d bytes", a.BodyLimit))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.BodyLimit)
		c.Next()
	}
}

func (a *App) recovered(c *gin.Context, rec any) {
	a.Log.Error("panic recovered",
		requestIDKey, c.GetString(requestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"panic", rec,
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
		Code:    http.StatusInternalServerError,
		Message: "internal server error",
	})
}
