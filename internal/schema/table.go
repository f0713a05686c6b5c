package schema

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultKey — имя поля-идентификатора, если в описании таблицы не задано другое.
const DefaultKey = "id"

// TableSpec — исходное описание таблицы.
type TableSpec struct {
	Name    string
	Key     string // поле-идентификатор; пусто = DefaultKey
	Display string // строковое поле для сообщений (необязательно)
	Fields  []FieldSpec
}

// Table — неизменяемая схема одного ресурса. Поля хранятся в порядке объявления.
type Table struct {
	name    string
	key     string
	display string
	fields  []*Field
	byName  map[string]*Field
}

// NewTable проверяет описание (см. Lint) и строит таблицу.
func NewTable(spec TableSpec) (*Table, error) {
	if spec.Key == "" {
		spec.Key = DefaultKey
	}
	if issues := spec.Lint(); len(issues) > 0 {
		return nil, &LintError{Issues: issues}
	}

	t := &Table{
		name:    spec.Name,
		key:     spec.Key,
		display: spec.Display,
		fields:  make([]*Field, 0, len(spec.Fields)),
		byName:  make(map[string]*Field, len(spec.Fields)),
	}
	for _, fs := range spec.Fields {
		f, err := newField(fs)
		if err != nil {
			return nil, fmt.Errorf("table %s: field %s: %w", spec.Name, fs.Name, err)
		}
		t.fields = append(t.fields, f)
		t.byName[f.name] = f
	}
	return t, nil
}

func (t *Table) Name() string { return t.name }

// Key — имя поля-идентификатора (всегда KindUint32).
func (t *Table) Key() string { return t.key }

// KeyField возвращает поле-идентификатор.
func (t *Table) KeyField() *Field { return t.byName[t.key] }

// Display — имя поля для приветственных сообщений; "" если не задано.
func (t *Table) Display() string { return t.display }

// Fields возвращает поля в порядке объявления. Срез копируется.
func (t *Table) Fields() []*Field {
	return append([]*Field(nil), t.fields...)
}

func (t *Table) Field(name string) (*Field, bool) {
	f, ok := t.byName[name]
	return f, ok
}

// ===== lint =====

type Issue struct {
	Table   string `json:"table"`
	Field   string `json:"field,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	where := i.Table
	if i.Field != "" {
		where += "." + i.Field
	}
	return fmt.Sprintf("%s: %s (%s)", where, i.Message, i.Code)
}

// LintError — схема содержит блокирующие противоречия.
type LintError struct {
	Issues []Issue
}

func (e *LintError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, it := range e.Issues {
		parts = append(parts, it.String())
	}
	return "schema has blocking issues: " + strings.Join(parts, "; ")
}

// AsLintError достаёт список проблем из ошибки построения схемы.
func AsLintError(err error) ([]Issue, bool) {
	var le *LintError
	if errors.As(err, &le) {
		return le.Issues, true
	}
	return nil, false
}

// Lint проверяет описание таблицы. Пустой результат гарантирует, что ни одна
// комбинация валидной схемы и валидного запроса не даст Internal при чтении
// идентификатора или display-поля.
func (s TableSpec) Lint() []Issue {
	var issues []Issue
	add := func(field, code, format string, args ...any) {
		issues = append(issues, Issue{Table: s.Name, Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(s.Name) == "" {
		add("", "table_name_empty", "table has no name")
	}
	if len(s.Fields) == 0 {
		add("", "no_fields", "table declares no fields")
	}

	key := s.Key
	if key == "" {
		key = DefaultKey
	}

	names := map[string]struct{}{}
	jsonNames := map[string]struct{}{}
	byName := map[string]FieldSpec{}
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			add("", "field_name_empty", "field has no name")
			continue
		}
		if _, dup := names[f.Name]; dup {
			add(f.Name, "duplicate_field", "field %q is declared twice", f.Name)
			continue
		}
		names[f.Name] = struct{}{}
		byName[f.Name] = f

		jn := f.JSONName
		if jn == "" {
			jn = f.Name
		}
		if _, dup := jsonNames[jn]; dup {
			add(f.Name, "duplicate_json_name", "JSON name %q is used by more than one field", jn)
		}
		jsonNames[jn] = struct{}{}

		if !f.Kind.Valid() {
			add(f.Name, "kind_invalid", "field has no valid type")
		}
		if f.Catalog != "" {
			if f.Kind != KindEnum {
				add(f.Name, "catalog_not_enum", "catalog %q is set on a %s field", f.Catalog, f.Kind)
			} else if len(f.Allowed) == 0 {
				add(f.Name, "catalog_empty", "catalog %q has no items", f.Catalog)
			}
		}
	}

	if kf, ok := byName[key]; !ok {
		add(key, "key_missing", "identifier field %q is not declared", key)
	} else if kf.Kind != KindUint32 {
		add(key, "key_kind", "identifier field must be %s, got %s", KindUint32, kf.Kind)
	}

	if s.Display != "" {
		if df, ok := byName[s.Display]; !ok {
			add(s.Display, "display_missing", "display field %q is not declared", s.Display)
		} else if df.Kind != KindString {
			add(s.Display, "display_kind", "display field must be %s, got %s", KindString, df.Kind)
		}
	}
	return issues
}
