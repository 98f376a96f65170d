package domain

import "errors"

// Доменные ошибки слоя статистики
var (
	// ErrRateLimited - запрос отклонён локальным ограничителем до обращения к сети
	ErrRateLimited = errors.New("too many requests, please wait")

	// ErrUnauthorized - токен отсутствует, недействителен или истёк (401)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound - эндпоинт или ресурс не найден (404)
	ErrNotFound = errors.New("resource not found")

	// ErrTooManyRequests - бэкенд ограничил частоту запросов (429)
	ErrTooManyRequests = errors.New("too many requests")

	// ErrBackend - прочие ошибки сети или сервера
	ErrBackend = errors.New("backend error")

	// ErrInvalidInput - некорректные входные данные
	ErrInvalidInput = errors.New("invalid input data")
)

// ErrorCode представляет код ошибки API
type ErrorCode string

const (
	CodeRateLimited     ErrorCode = "RATE_LIMITED"
	CodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	CodeInvalidInput    ErrorCode = "INVALID_INPUT"
	CodeBackendError    ErrorCode = "BACKEND_ERROR"
)

// MapErrorToCode преобразует доменную ошибку в код API
func MapErrorToCode(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrTooManyRequests):
		return CodeTooManyRequests
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeBackendError
	}
}
