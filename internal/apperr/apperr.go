// Package apperr описывает классы ошибок сервиса и их отображение на HTTP-статусы.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind — класс ошибки. Определяет HTTP-статус ответа.
type Kind uint8

const (
	KindInternal Kind = iota
	KindBadRequest
	KindNotFound
	KindMethodNotAllowed
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindBadRequest:
		return "bad_request"
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindPayloadTooLarge:
		return "payload_too_large"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Status возвращает HTTP-статус для класса ошибки.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// Error — ошибка с классом. Message уходит клиенту как есть.
type Error struct {
	Kind    Kind
	Field   string // имя поля схемы, если ошибка относится к полю
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return newf(KindBadRequest, format, args...)
}

// FieldBadRequest — BadRequest, привязанный к полю схемы.
func FieldBadRequest(field, format string, args ...any) *Error {
	e := newf(KindBadRequest, format, args...)
	e.Field = field
	return e
}

func Internal(format string, args ...any) *Error {
	return newf(KindInternal, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func MethodNotAllowed(format string, args ...any) *Error {
	return newf(KindMethodNotAllowed, format, args...)
}

func PayloadTooLarge(format string, args ...any) *Error {
	return newf(KindPayloadTooLarge, format, args...)
}

// Wrap сохраняет исходную ошибку как причину (для логов), клиенту уходит только message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.cause = cause
	return e
}

// genericMessage — то, что видит клиент при неклассифицированной ошибке.
const genericMessage = "internal server error"

// From классифицирует произвольную ошибку. Вторым значением возвращает false,
// если ошибка не из этого пакета: такие ошибки сворачиваются в Internal
// с общим сообщением, детали остаются только в логах.
func From(err error) (*Error, bool) {
	if err == nil {
		return nil, true
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return &Error{Kind: KindInternal, Message: genericMessage, cause: err}, false
}

// Is сообщает, относится ли err к классу kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
