package errors

import "errors"

var (
	ErrNetwork            = errors.New("network error")
	ErrContentUnavailable = errors.New("no extractable content")
	ErrInvalidURL         = errors.New("invalid url")
	ErrQuotaExceeded      = errors.New("rate limit or quota exceeded")
	ErrSafetyBlocked      = errors.New("blocked by safety settings")
	ErrSchemaInvalid      = errors.New("generated data has incorrect structure")
	ErrNotFound           = errors.New("not found")
	ErrInvalid            = errors.New("invalid")
	ErrInternal           = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSafetyBlocked(err error) bool {
	return errors.Is(err, ErrSafetyBlocked)
}

func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
