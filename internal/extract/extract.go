// Package extract сверяет JSON-тело запроса со схемой таблицы и превращает
// его в проверенный набор значений. Первая найденная ошибка прерывает разбор.
package extract

import (
	"encoding/json"
	"fmt"

	"proverka/internal/apperr"
	"proverka/internal/schema"
)

// Policy — правила полноты для конкретной операции.
type Policy uint8

const (
	// Create: обязательные (и не generated) поля должны присутствовать.
	Create Policy = iota
	// Update: любое подмножество полей, кроме идентификатора.
	Update
	// Identify: только идентификатор, он обязателен.
	Identify
)

func (p Policy) String() string {
	switch p {
	case Create:
		return "create"
	case Update:
		return "update"
	case Identify:
		return "identify"
	}
	return fmt.Sprintf("policy(%d)", uint8(p))
}

// visits — участвует ли поле в разборе при данной политике.
func (p Policy) visits(t *schema.Table, f *schema.Field) bool {
	switch p {
	case Update:
		return f.Name() != t.Key()
	case Identify:
		return f.Name() == t.Key()
	}
	return true
}

// missing — ошибка для отсутствующего поля или nil, если отсутствие допустимо.
func (p Policy) missing(t *schema.Table, f *schema.Field) error {
	switch p {
	case Create:
		if f.Required() && !f.Generated() {
			return apperr.FieldBadRequest(f.Name(),
				"field %s is listed as required, but was not included in the request body", f.JSONName())
		}
	case Identify:
		return apperr.FieldBadRequest(f.Name(),
			"identifier field %s is required, but was not included in the request body", f.JSONName())
	case Update:
	}
	return nil
}

// Extract разбирает body по схеме t. Неизвестные ключи тела игнорируются.
// Функция чистая: при ошибке ничего, кроме ошибки, не возвращается.
func Extract(body any, t *schema.Table, p Policy) (schema.Fields, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, Malformed(body)
	}

	out := make(schema.Fields)
	for _, f := range t.Fields() {
		if !p.visits(t, f) {
			continue
		}
		raw, present := obj[f.JSONName()]
		if !present {
			if err := p.missing(t, f); err != nil {
				return nil, err
			}
			continue
		}
		v, err := f.Extract(raw)
		if err != nil {
			return nil, apperr.FieldBadRequest(f.Name(),
				"field %s is not formatted properly: %s; JSON: %s", f.JSONName(), err, schema.RawJSON(raw))
		}
		out[f.Name()] = v
	}
	return out, nil
}

// Malformed — тело не является JSON-объектом.
func Malformed(body any) error {
	return apperr.BadRequest("malformed body: expected a JSON object, found %s; JSON: %s",
		schema.JSONShape(body), truncate(schema.RawJSON(body), 256))
}

// Identifier достаёт идентификатор из тела запроса.
// Нет поля — BadRequest; kind не тот — Internal (рассогласование схемы и движка).
func Identifier(body any, t *schema.Table) (uint32, error) {
	fields, err := Extract(body, t, Identify)
	if err != nil {
		return 0, err
	}
	return key(fields, t)
}

// IdentifierFromPath разбирает идентификатор из сегмента пути тем же
// экстрактором, что и тело: "7" -> 7, "abc" и "-1" -> BadRequest.
func IdentifierFromPath(raw string, t *schema.Table) (uint32, error) {
	kf := t.KeyField()
	v, err := kf.Extract(json.Number(raw))
	if err != nil {
		return 0, apperr.FieldBadRequest(kf.Name(),
			"path identifier %q is not formatted properly: %s", truncate(raw, 64), err)
	}
	return key(schema.Fields{kf.Name(): v}, t)
}

// Patch — идентификатор из тела плюс частичный набор остальных полей.
func Patch(body any, t *schema.Table) (uint32, schema.Fields, error) {
	id, err := Identifier(body, t)
	if err != nil {
		return 0, nil, err
	}
	fields, err := Extract(body, t, Update)
	if err != nil {
		return 0, nil, err
	}
	return id, fields, nil
}

func key(fields schema.Fields, t *schema.Table) (uint32, error) {
	id, present, err := fields.Uint32(t.Key())
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, apperr.FieldBadRequest(t.Key(), "err: no %s; the %s field is required", t.Key(), t.Key())
	}
	return id, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
