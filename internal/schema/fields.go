package schema

import (
	"proverka/internal/apperr"
)

// Fields — проверенные значения полей одного запроса, ключ — имя поля.
// Живёт в пределах запроса и не разделяется между горутинами.
type Fields map[string]Value

// wrongKind — значение уже прошло экстракцию, но его kind не тот, что ждёт код.
// Это рассогласование схемы и движка, а не ошибка клиента.
func wrongKind(name string, want Kind, got Value) error {
	return apperr.Internal("err: wrong type for field %s; expected %s, found %s; value: %q",
		name, want.Describe(), got.Kind().Describe(), got.String())
}

// Uint32 возвращает значение u32-поля. present=false, если поля нет в запросе.
func (fs Fields) Uint32(name string) (n uint32, present bool, err error) {
	v, ok := fs[name]
	if !ok {
		return 0, false, nil
	}
	n, ok = v.AsUint32()
	if !ok {
		return 0, true, wrongKind(name, KindUint32, v)
	}
	return n, true, nil
}

func (fs Fields) String(name string) (s string, present bool, err error) {
	v, ok := fs[name]
	if !ok {
		return "", false, nil
	}
	s, ok = v.AsString()
	if !ok {
		return "", true, wrongKind(name, KindString, v)
	}
	return s, true, nil
}

func (fs Fields) Enum(name string) (n uint32, present bool, err error) {
	v, ok := fs[name]
	if !ok {
		return 0, false, nil
	}
	n, ok = v.AsEnum()
	if !ok {
		return 0, true, wrongKind(name, KindEnum, v)
	}
	return n, true, nil
}

func (fs Fields) Byte(name string) (b uint8, present bool, err error) {
	v, ok := fs[name]
	if !ok {
		return 0, false, nil
	}
	b, ok = v.AsByte()
	if !ok {
		return 0, true, wrongKind(name, KindByte, v)
	}
	return b, true, nil
}

// Native — значения как обычные Go-типы (для JSON/логов).
func (fs Fields) Native() map[string]any {
	out := make(map[string]any, len(fs))
	for k, v := range fs {
		out[k] = v.Native()
	}
	return out
}

// Ordered возвращает пары в порядке объявления полей таблицы.
func (fs Fields) Ordered(t *Table) []NamedValue {
	out := make([]NamedValue, 0, len(fs))
	for _, f := range t.fields {
		if v, ok := fs[f.name]; ok {
			out = append(out, NamedValue{Name: f.name, Value: v})
		}
	}
	return out
}

type NamedValue struct {
	Name  string
	Value Value
}
