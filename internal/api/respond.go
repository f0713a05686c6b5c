package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"proverka/internal/apperr"
	"proverka/internal/extract"
	"proverka/internal/ops"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type messageBody struct {
	Message string `json:"message"`
}

// accepted — единый успешный ответ операций.
func accepted(c *gin.Context, res ops.Result) {
	c.JSON(http.StatusAccepted, messageBody{Message: res.Message})
}

// fail переводит ошибку в {code, message}. Internal и неклассифицированные
// пишутся в лог с причиной, клиентские — на debug.
func (a *App) fail(c *gin.Context, err error) {
	ae, known := apperr.From(err)
	status := ae.Kind.Status()

	attrs := []slog.Attr{
		slog.String(requestIDKey, c.GetString(requestIDKey)),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", status),
	}
	if ae.Field != "" {
		attrs = append(attrs, slog.String("field", ae.Field))
	}
	if !known || ae.Kind == apperr.KindInternal {
		attrs = append(attrs, slog.Any("err", err))
		a.Log.LogAttrs(c.Request.Context(), slog.LevelError, "request failed", attrs...)
	} else {
		attrs = append(attrs, slog.String("reason", ae.Message))
		a.Log.LogAttrs(c.Request.Context(), slog.LevelDebug, "request rejected", attrs...)
	}

	c.AbortWithStatusJSON(status, errorBody{Code: status, Message: ae.Message})
}

// readBody читает тело с учётом лимита и разбирает JSON.
func readBody(c *gin.Context) (any, error) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.PayloadTooLarge("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, apperr.Wrap(apperr.KindBadRequest, err, "Invalid Body")
	}
	return extract.ParseBody(data)
}
