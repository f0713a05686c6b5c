package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind — тип скалярного значения поля.
type Kind uint8

const (
	KindNull Kind = iota // нулевое значение, экстракцией не производится
	KindString
	KindUint32
	KindEnum
	KindByte

	kindFakeLast
)

var kindNames = [...]string{
	KindNull:   "null",
	KindString: "string",
	KindUint32: "u32",
	KindEnum:   "enum",
	KindByte:   "byte",
}

func (k Kind) String() string {
	if k < kindFakeLast {
		return kindNames[k]
	}
	return "Kind(" + strconv.FormatUint(uint64(k), 10) + ")"
}

// Describe — человекочитаемое название для сообщений об ошибках.
func (k Kind) Describe() string {
	switch k {
	case KindString:
		return "string"
	case KindUint32:
		return "unsigned 32-bit integer"
	case KindEnum:
		return "enum discriminant (unsigned 32-bit integer)"
	case KindByte:
		return "unsigned 8-bit integer"
	}
	return k.String()
}

// Valid — true для всех kind, кроме KindNull и значений вне диапазона.
func (k Kind) Valid() bool { return k > KindNull && k < kindFakeLast }

// ParseKind разбирает имя типа из описания схемы (регистр не важен).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "text", "str":
		return KindString, nil
	case "u32", "uint32", "unsigned32", "uint":
		return KindUint32, nil
	case "enum":
		return KindEnum, nil
	case "byte", "u8", "uint8":
		return KindByte, nil
	}
	return KindNull, fmt.Errorf("unknown field type %q", s)
}

// Kinds возвращает все допустимые kind в порядке объявления.
func Kinds() []Kind {
	out := make([]Kind, 0, kindFakeLast-1)
	for k := KindNull + 1; k < kindFakeLast; k++ {
		out = append(out, k)
	}
	return out
}
