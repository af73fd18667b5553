package storage

import "errors"

// Сигнальные ошибки хранилищ. Композитор и обработчики переводят их
// в таксономию apperr на своих границах.
var (
	// ErrNotFound возвращается, когда запись отсутствует.
	ErrNotFound = errors.New("record not found")

	// ErrNotMember возвращается при попытке опубликовать пост в
	// сообщество без активного членства.
	ErrNotMember = errors.New("not an active member of this community")
)
