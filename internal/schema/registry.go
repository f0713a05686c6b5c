package schema

import (
	"fmt"
	"strings"
)

// Registry — имя ресурса -> схема. Строится один раз при старте и дальше
// только читается, поэтому блокировки не нужны.
type Registry struct {
	tables []*Table
	byName map[string]*Table // ключ в нижнем регистре
}

func NewRegistry(tables ...*Table) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if t == nil {
			continue
		}
		k := strings.ToLower(t.name)
		if _, dup := r.byName[k]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.name)
		}
		r.byName[k] = t
		r.tables = append(r.tables, t)
	}
	if len(r.tables) == 0 {
		return nil, fmt.Errorf("schema registry is empty")
	}
	return r, nil
}

// Lookup ищет таблицу без учёта регистра и пробелов по краям.
func (r *Registry) Lookup(name string) (*Table, bool) {
	t, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Tables возвращает таблицы в порядке регистрации.
func (r *Registry) Tables() []*Table {
	return append([]*Table(nil), r.tables...)
}

func (r *Registry) Len() int { return len(r.tables) }
