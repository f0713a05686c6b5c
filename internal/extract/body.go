package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"unicode/utf8"

	"proverka/internal/apperr"
)

// ParseBody декодирует тело запроса в обобщённое JSON-значение.
// Числа остаются json.Number, чтобы диапазоны проверялись без потерь точности.
func ParseBody(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperr.BadRequest("Invalid Body")
	}
	// encoding/json молча заменил бы битые байты на U+FFFD
	if !utf8.Valid(data) {
		return nil, apperr.BadRequest("Invalid Body")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, err, "Invalid Body")
	}
	// после значения допустимы только пробелы
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperr.BadRequest("Invalid Body")
	}
	if err := checkDuplicateKeys(data); err != nil {
		return nil, err
	}
	return v, nil
}

// checkDuplicateKeys проходит уже проверенный JSON потоком токенов:
// при повторе ключа в одном объекте Decode оставил бы последнее значение.
func checkDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return walkValue(dec)
}

func walkValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return apperr.Wrap(apperr.KindBadRequest, err, "Invalid Body")
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '{':
		seen := map[string]struct{}{}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return apperr.Wrap(apperr.KindBadRequest, err, "Invalid Body")
			}
			key, _ := kt.(string)
			if _, dup := seen[key]; dup {
				return apperr.BadRequest("Invalid Body: duplicate key %q", key)
			}
			seen[key] = struct{}{}
			if err := walkValue(dec); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := walkValue(dec); err != nil {
				return err
			}
		}
	}
	// закрывающая скобка
	if _, err := dec.Token(); err != nil {
		return apperr.Wrap(apperr.KindBadRequest, err, "Invalid Body")
	}
	return nil
}
