package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeError — значение JSON не подходит под ожидаемый kind.
type DecodeError struct {
	Expected Kind
	Found    string // форма JSON: string, number, boolean, null, array, object
	Reason   string
}

func (e *DecodeError) Error() string {
	// форма верная, но значение не подходит (диапазон, дробь, справочник)
	if e.Reason != "" && e.Found == e.Expected.shape() {
		return fmt.Sprintf("invalid %s: %s", e.Expected.Describe(), e.Reason)
	}
	msg := fmt.Sprintf("wrong type; expected %s, found %s", e.Expected.Describe(), e.Found)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// shape — форма JSON, в которой приходит значение данного kind.
func (k Kind) shape() string {
	if k == KindString {
		return "string"
	}
	return "number"
}

// Decoder превращает один лист JSON в Value.
type Decoder func(raw any) (Value, error)

// decoderFor — единственное место, где kind сопоставляется с правилами разбора.
func decoderFor(k Kind) (Decoder, error) {
	switch k {
	case KindString:
		return decodeString, nil
	case KindUint32:
		return unsignedDecoder(KindUint32, 32, func(n uint64) Value { return Uint32Value(uint32(n)) }), nil
	case KindEnum:
		return unsignedDecoder(KindEnum, 32, func(n uint64) Value { return EnumValue(uint32(n)) }), nil
	case KindByte:
		return unsignedDecoder(KindByte, 8, func(n uint64) Value { return ByteValue(uint8(n)) }), nil
	case KindNull, kindFakeLast:
	}
	return nil, fmt.Errorf("no decoder for kind %s", k)
}

func unsignedDecoder(k Kind, bits int, wrap func(uint64) Value) Decoder {
	return func(raw any) (Value, error) {
		n, err := decodeUnsigned(raw, k, bits)
		if err != nil {
			return Value{}, err
		}
		return wrap(n), nil
	}
}

func decodeString(raw any) (Value, error) {
	s, ok := raw.(string)
	if !ok {
		return Value{}, &DecodeError{Expected: KindString, Found: JSONShape(raw)}
	}
	return StringValue(s), nil
}

// decodeUnsigned принимает json.Number (decoder.UseNumber) и float64 (обычный Unmarshal).
func decodeUnsigned(raw any, k Kind, bits int) (uint64, error) {
	fail := func(reason string) (uint64, error) {
		return 0, &DecodeError{Expected: k, Found: JSONShape(raw), Reason: reason}
	}
	limit := uint64(1)<<bits - 1

	switch t := raw.(type) {
	case json.Number:
		s := t.String()
		n, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			if n > limit {
				return fail(fmt.Sprintf("value %s is out of range 0..%d", s, limit))
			}
			return n, nil
		}
		var numErr *strconv.NumError
		switch {
		case strings.HasPrefix(s, "-"):
			return fail("value must not be negative")
		case errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange):
			return fail(fmt.Sprintf("value %s is out of range 0..%d", s, limit))
		case isNumeric(s):
			return fail("value must be an integer")
		}
		return fail("not a number")
	case float64:
		switch {
		case t < 0:
			return fail("value must not be negative")
		case t != math.Trunc(t) || math.IsInf(t, 0):
			return fail("value must be an integer")
		case t > float64(limit):
			return fail(fmt.Sprintf("value %v is out of range 0..%d", t, limit))
		}
		return uint64(t), nil
	}
	return fail("")
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// JSONShape называет форму значения так, как её видит клиент.
func JSONShape(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64, float32, int, int64, uint32, uint64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", raw)
}
