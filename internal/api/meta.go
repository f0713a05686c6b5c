package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ===== META HANDLERS =====

type metaTableListItem struct {
	Table   string `json:"table"`
	Key     string `json:"key"`
	Display string `json:"display,omitempty"`
	Fields  int    `json:"fields"`
}

func MetaListHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		tables := app.Schemas.Tables()
		out := make([]metaTableListItem, 0, len(tables))
		for _, t := range tables {
			out = append(out, metaTableListItem{
				Table:   t.Name(),
				Key:     t.Key(),
				Display: t.Display(),
				Fields:  len(t.Fields()),
			})
		}
		c.JSON(http.StatusOK, gin.H{"default": app.DefaultTable, "tables": out})
	}
}

type metaField struct {
	Name      string   `json:"name"`
	JSON      string   `json:"json"`
	Type      string   `json:"type"`
	Required  bool     `json:"required"`
	Generated bool     `json:"generated,omitempty"`
	Catalog   string   `json:"catalog,omitempty"`
	Allowed   []uint32 `json:"allowed,omitempty"`
}

type metaTable struct {
	Table   string      `json:"table"`
	Key     string      `json:"key"`
	Display string      `json:"display,omitempty"`
	Fields  []metaField `json:"fields"`
}

func MetaTableHandler(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := app.tableFromPath(c)
		if err != nil {
			app.fail(c, err)
			return
		}

		fields := make([]metaField, 0, len(t.Fields()))
		for _, f := range t.Fields() {
			fields = append(fields, metaField{
				Name:      f.Name(),
				JSON:      f.JSONName(),
				Type:      f.Kind().String(),
				Required:  f.Required(),
				Generated: f.Generated(),
				Catalog:   f.Catalog(),
				Allowed:   f.Allowed(),
			})
		}
		c.JSON(http.StatusOK, metaTable{
			Table:   t.Name(),
			Key:     t.Key(),
			Display: t.Display(),
			Fields:  fields,
		})
	}
}
