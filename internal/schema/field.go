package schema

import (
	"encoding/json"
	"fmt"
	"slices"
)

// FieldSpec — исходное описание поля, из которого строится Field.
type FieldSpec struct {
	Name      string
	JSONName  string // ключ в теле запроса; пусто = Name
	Kind      Kind
	Required  bool
	Generated bool // назначается сервером (id), required на create не проверяется

	// только для enum: имя справочника и допустимые значения
	Catalog string
	Allowed []uint32
}

// Field — неизменяемое описание поля таблицы.
type Field struct {
	name      string
	jsonName  string
	kind      Kind
	required  bool
	generated bool
	catalog   string
	allowed   map[uint32]struct{}
	decode    Decoder
}

func newField(spec FieldSpec) (*Field, error) {
	dec, err := decoderFor(spec.Kind)
	if err != nil {
		return nil, err
	}
	f := &Field{
		name:      spec.Name,
		jsonName:  spec.JSONName,
		kind:      spec.Kind,
		required:  spec.Required,
		generated: spec.Generated,
		catalog:   spec.Catalog,
		decode:    dec,
	}
	if f.jsonName == "" {
		f.jsonName = f.name
	}
	if spec.Catalog != "" {
		f.allowed = make(map[uint32]struct{}, len(spec.Allowed))
		for _, v := range spec.Allowed {
			f.allowed[v] = struct{}{}
		}
	}
	return f, nil
}

func (f *Field) Name() string     { return f.name }
func (f *Field) JSONName() string { return f.jsonName }
func (f *Field) Kind() Kind       { return f.kind }
func (f *Field) Required() bool   { return f.required }
func (f *Field) Generated() bool  { return f.generated }
func (f *Field) Catalog() string  { return f.catalog }

// Allowed возвращает допустимые значения enum по возрастанию (nil — без ограничений).
func (f *Field) Allowed() []uint32 {
	if f.allowed == nil {
		return nil
	}
	out := make([]uint32, 0, len(f.allowed))
	for v := range f.allowed {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Extract разбирает и проверяет один лист JSON. Функция чистая.
func (f *Field) Extract(raw any) (Value, error) {
	v, err := f.decode(raw)
	if err != nil {
		return Value{}, err
	}
	if f.allowed != nil {
		n, _ := v.AsEnum()
		if _, ok := f.allowed[n]; !ok {
			return Value{}, &DecodeError{
				Expected: f.kind,
				Found:    JSONShape(raw),
				Reason:   fmt.Sprintf("value %d is not in catalog %q", n, f.catalog),
			}
		}
	}
	return v, nil
}

// RawJSON — компактное представление значения для сообщений об ошибках.
func RawJSON(raw any) string {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(b)
}
