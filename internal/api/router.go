// api/router.go
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"proverka/internal/apperr"
	"proverka/internal/journal"
	"proverka/internal/ops"
	"proverka/internal/schema"
)

// App — всё, что нужно обработчикам. Реестр неизменяем и разделяется между запросами без блокировок.
type App struct {
	Schemas      *schema.Registry
	Ops          *ops.Service
	Log          *slog.Logger
	DefaultTable string // таблица для маршрутов без :table
	BodyLimit    int64
}

// NewRouter собирает gin.Engine. Неизвестная таблица по умолчанию — ошибка запуска.
func NewRouter(app *App) (*gin.Engine, error) {
	if app.Log == nil {
		app.Log = slog.Default()
	}
	def, ok := app.Schemas.Lookup(app.DefaultTable)
	if !ok {
		return nil, fmt.Errorf("default table %q is not in the schema", app.DefaultTable)
	}
	if err := CheckTableNames(app.Schemas); err != nil {
		return nil, err
	}
	if app.BodyLimit <= 0 {
		return nil, fmt.Errorf("body limit must be positive, got %d", app.BodyLimit)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		app.requestLogger(journal.NewIDSource()),
		gin.CustomRecoveryWithWriter(io.Discard, app.recovered),
		cors.New(cors.Config{
			AllowAllOrigins:           true,
			AllowMethods:              []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:              []string{"Content-Type", "Authorization"},
			MaxAge:                    12 * time.Hour,
			OptionsResponseStatusCode: http.StatusNoContent,
		}),
		app.bodyLimit(),
	)

	r.NoRoute(func(c *gin.Context) {
		app.fail(c, apperr.NotFound("no route for %s %s", c.Request.Method, c.Request.URL.Path))
	})
	r.NoMethod(func(c *gin.Context) {
		app.fail(c, apperr.MethodNotAllowed("method %s is not allowed for %s", c.Request.Method, c.Request.URL.Path))
	})

	r.GET("/healthz", HealthHandler(app))

	fixed := tableFixed(def)
	byPath := app.tableFromPath

	r.POST("/api", CreateHandler(app, fixed))
	apiGroup := r.Group("/api")
	{
		// статические маршруты соседствуют с :table
		apiGroup.GET("/meta", MetaListHandler(app))
		apiGroup.GET("/meta/:table", MetaTableHandler(app))

		// идентификатор в теле
		apiGroup.POST("/register", CreateHandler(app, fixed))
		apiGroup.GET("/login", LoginHandler(app, fixed))
		apiGroup.PATCH("/update", PatchBodyHandler(app, fixed))
		apiGroup.DELETE("/unsubscribe", UnsubscribeHandler(app, fixed))

		// идентификатор в пути
		apiGroup.POST("/:table", CreateHandler(app, byPath))
		apiGroup.GET("/:table/:id", GetOneHandler(app, byPath))
		apiGroup.PATCH("/:table/:id", UpdatePartialHandler(app, byPath))
		apiGroup.DELETE("/:table/:id", DeleteHandler(app, byPath))
	}
	return r, nil
}

// fixedSegments — статические сегменты под /api; таблица с таким именем была бы ими перекрыта.
var fixedSegments = []string{"meta", "register", "login", "update", "unsubscribe"}

// CheckTableNames отклоняет таблицы, чьё имя совпадает со статическим маршрутом.
func CheckTableNames(reg *schema.Registry) error {
	for _, t := range reg.Tables() {
		for _, seg := range fixedSegments {
			if strings.EqualFold(t.Name(), seg) {
				return fmt.Errorf("table %q clashes with the fixed route /api/%s", t.Name(), seg)
			}
		}
	}
	return nil
}

// RunServer обслуживает h до отмены ctx, затем останавливает сервер, давая запросам timeout на завершение.
func RunServer(ctx context.Context, addr string, h http.Handler, timeout time.Duration, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", timeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
