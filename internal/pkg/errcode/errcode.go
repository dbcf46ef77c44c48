package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrInvalid
	ErrNotFound
	ErrTooMany
	ErrInternal
	ErrNoContent
	ErrSafetyBlocked
	ErrQuotaExceeded
	ErrSchemaInvalid
	ErrUploadFailed
	ErrAIUnavailable
)
