// Package apperr определяет таксономию ошибок движка ленты.
// Валидационные ошибки формируются до похода в хранилище; ошибки
// хранилища заворачиваются в Unavailable на границе композитора
// и наружу отдаются без внутренних деталей.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку для отображения в HTTP-статус.
type Kind int

const (
	KindUnavailable Kind = iota
	KindNotFound
	KindAccessDenied
	KindInvalidArgument
)

// Error несет вид ошибки, сообщение для клиента и внутреннюю причину.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound — запрошенная сущность отсутствует (404).
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// AccessDenied — у зрителя нет прав на запрошенный ресурс (403).
func AccessDenied(msg string) *Error {
	return &Error{Kind: KindAccessDenied, Msg: msg}
}

// InvalidArgument — некорректные параметры запроса (400).
func InvalidArgument(msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// Unavailable — сбой хранилища или иной внутренней зависимости (500).
// Причина логируется, но клиенту не раскрывается.
func Unavailable(msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Msg: msg, Err: err}
}

// KindOf извлекает вид ошибки; незнакомые ошибки считаются Unavailable.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// Message возвращает сообщение, пригодное для ответа клиенту.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnavailable {
		return e.Msg
	}
	return "internal error"
}

// HTTPStatus отображает вид ошибки в статус-код.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
