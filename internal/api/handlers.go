package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"proverka/internal/apperr"
	"proverka/internal/extract"
	"proverka/internal/schema"
)

// resolver выбирает таблицу запроса: из :table или фиксированную.
type resolver func(c *gin.Context) (*schema.Table, error)

func tableFixed(t *schema.Table) resolver {
	return func(*gin.Context) (*schema.Table, error) { return t, nil }
}

func (a *App) tableFromPath(c *gin.Context) (*schema.Table, error) {
	name := c.Param("table")
	t, ok := a.Schemas.Lookup(name)
	if !ok {
		return nil, apperr.NotFound("table %s not found", name)
	}
	return t, nil
}

// POST: тело проверяется по политике Create.
func CreateHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := table(c)
		if err != nil {
			app.fail(c, err)
			return
		}
		body, err := readBody(c)
		if err != nil {
			app.fail(c, err)
			return
		}
		fields, err := extract.Extract(body, t, extract.Create)
		if err != nil {
			app.fail(c, err)
			return
		}
		res, err := app.Ops.Create(c.Request.Context(), t, fields)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

// GET /:table/:id — идентификатор только из пути.
func GetOneHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, id, ok := app.pathTarget(c, table)
		if !ok {
			return
		}
		res, err := app.Ops.Read(c.Request.Context(), t, id)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

// GET /login — идентификатор только из тела.
func LoginHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, id, ok := app.bodyTarget(c, table)
		if !ok {
			return
		}
		res, err := app.Ops.Read(c.Request.Context(), t, id)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

// PATCH /:table/:id — присланные поля по политике Update; id в теле игнорируется.
func UpdatePartialHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, id, ok := app.pathTarget(c, table)
		if !ok {
			return
		}
		body, err := readBody(c)
		if err != nil {
			app.fail(c, err)
			return
		}
		fields, err := extract.Extract(body, t, extract.Update)
		if err != nil {
			app.fail(c, err)
			return
		}
		res, err := app.Ops.Update(c.Request.Context(), t, id, fields)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

// PATCH /update — id и изменения в одном теле.
func PatchBodyHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := table(c)
		if err != nil {
			app.fail(c, err)
			return
		}
		body, err := readBody(c)
		if err != nil {
			app.fail(c, err)
			return
		}
		id, fields, err := extract.Patch(body, t)
		if err != nil {
			app.fail(c, err)
			return
		}
		res, err := app.Ops.Update(c.Request.Context(), t, id, fields)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

func DeleteHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, id, ok := app.pathTarget(c, table)
		if !ok {
			return
		}
		res, err := app.Ops.Delete(c.Request.Context(), t, id)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

// DELETE /unsubscribe — идентификатор из тела.
func UnsubscribeHandler(app *App, table resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, id, ok := app.bodyTarget(c, table)
		if !ok {
			return
		}
		res, err := app.Ops.Delete(c.Request.Context(), t, id)
		if err != nil {
			app.fail(c, err)
			return
		}
		accepted(c, res)
	}
}

func HealthHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "tables": app.Schemas.Len()})
	}
}

// pathTarget: таблица и идентификатор из пути. При ошибке ответ уже отправлен.
func (a *App) pathTarget(c *gin.Context, table resolver) (*schema.Table, uint32, bool) {
	t, err := table(c)
	if err != nil {
		a.fail(c, err)
		return nil, 0, false
	}
	id, err := extract.IdentifierFromPath(c.Param("id"), t)
	if err != nil {
		a.fail(c, err)
		return nil, 0, false
	}
	return t, id, true
}

func (a *App) bodyTarget(c *gin.Context, table resolver) (*schema.Table, uint32, bool) {
	t, err := table(c)
	if err != nil {
		a.fail(c, err)
		return nil, 0, false
	}
	body, err := readBody(c)
	if err != nil {
		a.fail(c, err)
		return nil, 0, false
	}
	id, err := extract.Identifier(body, t)
	if err != nil {
		a.fail(c, err)
		return nil, 0, false
	}
	return t, id, true
}
