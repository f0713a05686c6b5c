package schema

import (
	"encoding/json"
	"strconv"
)

// Value — разобранное значение поля. Kind всегда совпадает с Kind поля,
// которое его произвело. Нулевой Value имеет KindNull.
type Value struct {
	kind Kind
	str  string
	num  uint32
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }
func Uint32Value(n uint32) Value { return Value{kind: KindUint32, num: n} }
func EnumValue(n uint32) Value   { return Value{kind: KindEnum, num: n} }
func ByteValue(b uint8) Value    { return Value{kind: KindByte, num: uint32(b)} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }
func (v Value) AsUint32() (uint32, bool) { return v.num, v.kind == KindUint32 }
func (v Value) AsEnum() (uint32, bool)   { return v.num, v.kind == KindEnum }
func (v Value) AsByte() (uint8, bool)    { return uint8(v.num), v.kind == KindByte }

// Native возвращает значение как обычный Go-тип (для логов, JSON и SQL-аргументов).
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindUint32, KindEnum:
		return v.num
	case KindByte:
		return uint8(v.num)
	case KindNull, kindFakeLast:
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindUint32, KindEnum, KindByte:
		return strconv.FormatUint(uint64(v.num), 10)
	case KindNull, kindFakeLast:
	}
	return "null"
}

func (v Value) MarshalJSON() ([]byte, error) { return json.Marshal(v.Native()) }
