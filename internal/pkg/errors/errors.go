package errors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalid         = errors.New("invalid")
	ErrEmptyDocument   = errors.New("no text chunks generated")
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrUnavailable     = errors.New("upstream service unavailable")
	ErrPersistence     = errors.New("persistence failure")
	ErrInternal        = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEmptyDocument(err error) bool {
	return errors.Is(err, ErrEmptyDocument)
}
